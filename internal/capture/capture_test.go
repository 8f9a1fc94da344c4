package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/settings"
)

func TestKindFromPath(t *testing.T) {
	cases := map[string]MediaKind{
		"/tmp/a.png":  KindImage,
		"/tmp/a.MOV":  KindVideo,
		"/tmp/a.mp4":  KindVideo,
		"/tmp/a.heic": KindImage,
		"/tmp/noext":  KindImage,
	}
	for path, want := range cases {
		if got := KindFromPath(path); got != want {
			t.Fatalf("%s: expected %s, got %s", path, want, got)
		}
	}
}

func TestNewArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	artifact, err := NewArtifact(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifact.Kind != KindVideo || artifact.Path != path || artifact.Name() != "clip.mp4" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}

	if _, err := NewArtifact(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := NewArtifact(dir); !errors.Is(err, ErrNotFile) {
		t.Fatalf("expected not file, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	if got := FileName("ishare", "png", now); got != "ishare 2024-03-09 14-05-06.png" {
		t.Fatalf("expected timestamp on plain template, got %s", got)
	}
	if got := FileName("shot {date} {time}", ".jpg", now); got != "shot 2024-03-09 14-05-06.jpg" {
		t.Fatalf("unexpected %s", got)
	}
	if got := FileName("", "png", now); got != "ishare 2024-03-09 14-05-06.png" {
		t.Fatalf("expected fallback name, got %s", got)
	}
	if got := FileName("{unix}", "mov", now); got != "1709993106.mov" {
		t.Fatalf("unexpected %s", got)
	}
}

func newSettings(t *testing.T, values map[settings.Key]string) *settings.Store {
	t.Helper()
	store, err := settings.Open(context.Background(), settings.NewMemoryBackend(), zerolog.Nop())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	for k, v := range values {
		if err := store.Set(context.Background(), k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	return store
}

func TestRunnerUsesCaptureBinary(t *testing.T) {
	dir := t.TempDir()
	store := newSettings(t, map[settings.Key]string{
		settings.CapturePath:   dir,
		settings.CaptureBinary: "/usr/sbin/screencapture",
	})

	var gotName string
	var gotArgs []string
	runner := NewRunner(store, zerolog.Nop(), WithCommand(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return os.WriteFile(args[len(args)-1], []byte("png"), 0o600)
	}))
	runner.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }

	path, err := runner.Capture(context.Background(), ModeRegion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotName != "/usr/sbin/screencapture" {
		t.Fatalf("unexpected binary %s", gotName)
	}
	if strings.Join(gotArgs[:3], " ") != "-i -t png" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if path != filepath.Join(dir, "ishare 2024-03-09 14-05-06.png") {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestRunnerCancelledKeepsPreviousCapture(t *testing.T) {
	dir := t.TempDir()
	store := newSettings(t, map[settings.Key]string{
		settings.CapturePath:     dir,
		settings.CaptureFileName: "fixo",
	})
	previous := filepath.Join(dir, "fixo.png")
	if err := os.WriteFile(previous, []byte("antiga"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var target string
	runner := NewRunner(store, zerolog.Nop(), WithCommand(func(ctx context.Context, name string, args ...string) error {
		target = args[len(args)-1]
		return nil
	}))
	runner.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }

	path, err := runner.Capture(context.Background(), ModeRegion)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancelled for untouched selection, got path=%q err=%v", path, err)
	}
	if target == previous {
		t.Fatalf("binary must never target an existing file")
	}
	if raw, err := os.ReadFile(previous); err != nil || string(raw) != "antiga" {
		t.Fatalf("previous capture must stay intact")
	}
}

func TestRunnerDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := newSettings(t, map[settings.Key]string{settings.CapturePath: dir})
	runner := NewRunner(store, zerolog.Nop(), WithCommand(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(args[len(args)-1], []byte("png"), 0o600)
	}))
	runner.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }

	first, err := runner.Capture(context.Background(), ModeScreen)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := runner.Capture(context.Background(), ModeScreen)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first == second {
		t.Fatalf("captures in the same second must not share a path")
	}
	if second != filepath.Join(dir, "ishare 2024-03-09 14-05-06 (2).png") {
		t.Fatalf("unexpected second path %s", second)
	}
}

func TestRunnerCancelled(t *testing.T) {
	store := newSettings(t, map[settings.Key]string{settings.CapturePath: t.TempDir()})
	runner := NewRunner(store, zerolog.Nop(), WithCommand(func(ctx context.Context, name string, args ...string) error {
		return nil
	}))

	if _, err := runner.Capture(context.Background(), ModeWindow); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestRunnerInternalGrab(t *testing.T) {
	dir := t.TempDir()
	store := newSettings(t, map[settings.Key]string{
		settings.CapturePath:   dir,
		settings.CaptureBinary: "",
	})

	runner := NewRunner(store, zerolog.Nop(), WithGrab(func() (image.Image, error) {
		img := image.NewRGBA(image.Rect(0, 0, 4, 3))
		img.Set(1, 1, color.White)
		return img, nil
	}))

	path, err := runner.Capture(context.Background(), ModeScreen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file: %v", err)
	}

	_ = store.Set(context.Background(), settings.CaptureFileType, "heic")
	if _, err := runner.Capture(context.Background(), ModeScreen); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Region"); err != nil || m != ModeRegion {
		t.Fatalf("unexpected %v %v", m, err)
	}
	if _, err := ParseMode("full"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected invalid mode")
	}
}
