package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/settings"
)

func TestS3UploaderSignsPut(t *testing.T) {
	var (
		method, path, auth, sha, contentType string
		body                                 []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		auth = r.Header.Get("Authorization")
		sha = r.Header.Get("x-amz-content-sha256")
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	up, err := NewS3Uploader(S3Config{
		Endpoint:     server.URL,
		Region:       "auto",
		Bucket:       "capturas",
		AccessKey:    "AKID",
		SecretKey:    "segredo",
		PublicDomain: "https://cdn.example.com/",
		KeyPrefix:    "ishare",
		HTTPClient:   server.Client(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	up.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	out, err := up.Upload(context.Background(), Input{Path: writeCapture(t), ContentType: "image/png"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if method != http.MethodPut || !strings.HasPrefix(path, "/capturas/ishare/2026/03/") || !strings.HasSuffix(path, ".png") {
		t.Fatalf("unexpected request %s %s", method, path)
	}
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/20260304/auto/s3/aws4_request, SignedHeaders=") {
		t.Fatalf("unexpected authorization %q", auth)
	}
	if !strings.Contains(auth, "x-amz-content-sha256;x-amz-date") {
		t.Fatalf("signed headers missing amz headers: %q", auth)
	}
	if len(sha) != 64 || contentType != "image/png" || string(body) != "\x89PNG-fake" {
		t.Fatalf("unexpected payload headers sha=%q type=%q", sha, contentType)
	}
	if out.ETag != "etag-1" || !strings.HasPrefix(out.Link, "https://cdn.example.com/ishare/2026/03/") {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestS3UploaderErrors(t *testing.T) {
	if _, err := NewS3Uploader(S3Config{Endpoint: "r2.example.com", Region: "auto", Bucket: "b", AccessKey: "a", SecretKey: "s"}); err == nil {
		t.Fatalf("expected protocol validation error")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "<Error>AccessDenied</Error>")
	}))
	defer server.Close()

	up, err := NewS3Uploader(S3Config{Endpoint: server.URL, Region: "auto", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := up.Upload(context.Background(), Input{Path: writeCapture(t)}); !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestSignerKnownRequest(t *testing.T) {
	s := newSigner("AKID", "segredo", "auto")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	req, err := http.NewRequest(http.MethodPut, "http://r2.example.com/capturas/ishare/2026/03/captura%201.png", strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Cache-Control", "public")
	s.sign(req, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", at)

	want := "AWS4-HMAC-SHA256 Credential=AKID/20260304/auto/s3/aws4_request, " +
		"SignedHeaders=content-type;host;x-amz-content-sha256;x-amz-date, " +
		"Signature=cdb94522a810a9b2fe425db5dc4ada7f67ca920097a744080dae64c4590914c1"
	if got := req.Header.Get("Authorization"); got != want {
		t.Fatalf("authorization mismatch\n got %s\nwant %s", got, want)
	}
	if req.Header.Get("x-amz-date") != "20260304T050607Z" {
		t.Fatalf("unexpected x-amz-date %q", req.Header.Get("x-amz-date"))
	}
}

func TestSignerReusesKeyWithinDay(t *testing.T) {
	s := newSigner("AKID", "segredo", "auto")
	morning := time.Date(2026, 3, 4, 5, 0, 0, 0, time.UTC)

	first := s.keyFor(morning.Format("20060102"))
	if again := s.keyFor(morning.Add(3 * time.Hour).Format("20060102")); &again[0] != &first[0] {
		t.Fatalf("key must be reused within the same UTC day")
	}
	next := s.keyFor(morning.Add(20 * time.Hour).Format("20060102"))
	if &next[0] == &first[0] || s.keyDay != "20260305" {
		t.Fatalf("key must be derived again on the next day, got day %s", s.keyDay)
	}
}

func TestClientKeepsS3ETag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	up, err := NewS3Uploader(S3Config{
		Endpoint:   server.URL,
		Region:     "auto",
		Bucket:     "capturas",
		AccessKey:  "AKID",
		SecretKey:  "segredo",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var logs bytes.Buffer
	store := newStore(t, map[settings.Key]string{settings.UploadType: settings.UploadS3})
	client := NewClient(store, ClientOptions{Hosts: map[string]Uploader{settings.UploadS3: up}}, zerolog.New(&logs))

	res := client.UploadWait(context.Background(), writeCapture(t))
	if !res.OK() || res.Host != settings.UploadS3 || res.ETag != "etag-1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(logs.String(), `"etag":"etag-1"`) {
		t.Fatalf("success log must carry the etag, got %s", logs.String())
	}
}
