package settings

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), NewMemoryBackend(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store
}

func TestResetToDefaultRestoresEveryKey(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	overrides := map[Key]string{
		CapturePath:          "/tmp/caps/",
		CaptureFileName:      "shot-{unix}",
		CaptureFileType:      "jpg",
		ImgurClientID:        "abc",
		ToastTimeout:         "9",
		SaveToDisk:           "false",
		RecordingPath:        "/tmp/recs/",
		RecordAudio:          "false",
		ShowRecordingPreview: "false",
		CaptureBinary:        "/usr/bin/true",
		RecordingFileName:    "rec",
		RecordingFileType:    "mp4",
		MenuBarAppIcon:       "false",
		UploadType:           "none",
	}
	if len(overrides) != len(Keys()) {
		t.Fatalf("test must cover all %d keys", len(Keys()))
	}

	for key, value := range overrides {
		if err := store.Set(ctx, key, value); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	for _, key := range Keys() {
		if err := store.ResetToDefault(ctx, key); err != nil {
			t.Fatalf("reset %s: %v", key, err)
		}
		got, err := store.Get(key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		want, _ := Default(key)
		if got != want {
			t.Fatalf("%s: expected default %q, got %q", key, want, got)
		}
	}
}

func TestTypedAccessors(t *testing.T) {
	store := openMemory(t)

	if store.Int(ToastTimeout) != 2 {
		t.Fatalf("expected default toast timeout 2")
	}
	if !store.Bool(SaveToDisk) {
		t.Fatalf("expected saveToDisk true by default")
	}
	if store.String(CaptureFileType) != "png" {
		t.Fatalf("expected png")
	}

	if err := store.Set(context.Background(), SaveToDisk, "no"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Bool(SaveToDisk) {
		t.Fatalf("expected saveToDisk false")
	}
	if store.String(SaveToDisk) != "false" {
		t.Fatalf("expected normalized value, got %s", store.String(SaveToDisk))
	}
}

func TestSetValidation(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	cases := []struct {
		key   Key
		value string
		want  error
	}{
		{ToastTimeout, "-1", ErrInvalidValue},
		{ToastTimeout, "abc", ErrInvalidValue},
		{ToastTimeout, "86401", ErrInvalidValue},
		{ToastTimeout, "9300000000", ErrInvalidValue},
		{SaveToDisk, "maybe", ErrInvalidValue},
		{CaptureFileType, "exe", ErrInvalidValue},
		{UploadType, "ftp", ErrInvalidValue},
		{Key("unknown"), "x", ErrUnknownKey},
	}

	for _, tc := range cases {
		err := store.Set(ctx, tc.key, tc.value)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s=%s: expected %v, got %v", tc.key, tc.value, tc.want, err)
		}
	}

	if err := store.Set(ctx, CaptureFileType, "JPG"); err != nil {
		t.Fatalf("expected case-insensitive enum: %v", err)
	}
	if store.String(CaptureFileType) != "jpg" {
		t.Fatalf("expected lowercased enum")
	}
}

func TestOpenIgnoresInvalidPersistedValues(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Save(ctx, ToastTimeout, "nope")
	_ = backend.Save(ctx, Key("legacyKey"), "1")
	_ = backend.Save(ctx, CaptureFileName, "persisted")

	store, err := Open(ctx, backend, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Int(ToastTimeout) != 2 {
		t.Fatalf("invalid persisted value must fall back to default")
	}
	if store.String(CaptureFileName) != "persisted" {
		t.Fatalf("expected persisted value")
	}
}

func TestToastTimeoutCeiling(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	_ = backend.Save(ctx, ToastTimeout, "9300000000")

	store, err := Open(ctx, backend, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Int(ToastTimeout) != 2 {
		t.Fatalf("oversized persisted timeout must fall back to default, got %d", store.Int(ToastTimeout))
	}

	if err := store.Set(ctx, ToastTimeout, "86400"); err != nil {
		t.Fatalf("one day must be accepted: %v", err)
	}
	if got := time.Duration(store.Int(ToastTimeout)) * time.Second; got != 24*time.Hour {
		t.Fatalf("expected a positive one-day timeout, got %s", got)
	}
}

func TestFileBackendPersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	store, err := Open(ctx, NewFileBackend(path), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(ctx, ToastTimeout, "5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, ImgurClientID, "client"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.ResetToDefault(ctx, ImgurClientID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	reopened, err := Open(ctx, NewFileBackend(path), zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Int(ToastTimeout) != 5 {
		t.Fatalf("expected persisted timeout")
	}
	if reopened.String(ImgurClientID) != "867afe9433c0a53" {
		t.Fatalf("expected default client id after reset")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := openMemory(t)
	_ = source.Set(ctx, CapturePath, "/srv/caps/")
	_ = source.Set(ctx, RecordAudio, "false")

	for _, format := range []string{"json", "yaml"} {
		data, err := source.Export(format)
		if err != nil {
			t.Fatalf("export %s: %v", format, err)
		}

		target := openMemory(t)
		n, err := target.Import(ctx, data, format)
		if err != nil {
			t.Fatalf("import %s: %v", format, err)
		}
		if n != len(Keys()) {
			t.Fatalf("expected %d keys imported, got %d", len(Keys()), n)
		}
		if target.String(CapturePath) != "/srv/caps/" || target.Bool(RecordAudio) {
			t.Fatalf("%s: values not carried over", format)
		}
	}
}

func TestImportRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)

	payload := `{"toastTimeout":"7","saveToDisk":"talvez"}`
	if _, err := store.Import(ctx, []byte(payload), "json"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}
	if store.Int(ToastTimeout) != 2 {
		t.Fatalf("no key should be written when validation fails")
	}

	if _, err := store.Export("xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format")
	}
}

func TestParseKeyIsCaseInsensitive(t *testing.T) {
	key, err := ParseKey(" IMGURCLIENTID ")
	if err != nil || key != ImgurClientID {
		t.Fatalf("unexpected %v %v", key, err)
	}
	if _, err := ParseKey("nope"); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}
