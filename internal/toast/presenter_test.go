package toast

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/settings"
	"github.com/urbanbyte/ishare/internal/thumbnail"
)

type recordingRenderer struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingRenderer) Render(view View) {
	r.mu.Lock()
	r.views = append(r.views, view)
	r.mu.Unlock()
}

func (r *recordingRenderer) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

type stubRevealer struct {
	paths []string
}

func (s *stubRevealer) Reveal(ctx context.Context, path string) error {
	s.paths = append(s.paths, path)
	return nil
}

func newStore(t *testing.T, values map[settings.Key]string) *settings.Store {
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

func newThumb() *thumbnail.Thumbnail {
	return thumbnail.New(uuid.New(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
}

func waitForState(t *testing.T, p *Presenter, id uuid.UUID, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, v := range p.Snapshot() {
			if v.ID == id && v.State == want {
				return
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("toast %s never reached %s", id, want)
}

func TestPresentRunsStateMachineOnce(t *testing.T) {
	store := newStore(t, map[settings.Key]string{settings.ToastTimeout: "0"})
	renderer := &recordingRenderer{}
	events := make(chan Event, 16)
	p := NewPresenter(store, Options{Fade: 5 * time.Millisecond, Renderer: renderer, Events: events}, zerolog.Nop())

	thumb := newThumb()
	var dismissed int32
	id := p.Present(thumb, "/tmp/shot.png", func() { atomic.AddInt32(&dismissed, 1) })
	if id == uuid.Nil {
		t.Fatalf("expected toast id")
	}
	p.Wait()

	if atomic.LoadInt32(&dismissed) != 1 {
		t.Fatalf("onDismiss must fire exactly once, got %d", dismissed)
	}
	close(events)

	want := []State{FadingIn, Visible, FadingOut, Hidden}
	var got []State
	for ev := range events {
		got = append(got, ev.To)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if len(renderer.all()) != 4 {
		t.Fatalf("expected one render per transition")
	}
	if thumb.Image() != nil {
		t.Fatalf("thumbnail must not outlive its toast")
	}
	if len(p.Snapshot()) != 0 {
		t.Fatalf("toast must be removed after dismissal")
	}
}

func TestPresentSkipsWithoutThumbnail(t *testing.T) {
	p := NewPresenter(newStore(t, nil), Options{}, zerolog.Nop())
	called := false
	if id := p.Present(nil, "/tmp/x.png", func() { called = true }); id != uuid.Nil {
		t.Fatalf("expected no toast")
	}
	p.Wait()
	if called {
		t.Fatalf("onDismiss must not fire when nothing was shown")
	}
}

func TestPresentOneToastPerArtifact(t *testing.T) {
	store := newStore(t, map[settings.Key]string{settings.ToastTimeout: "1"})
	p := NewPresenter(store, Options{Fade: 0, Renderer: &recordingRenderer{}}, zerolog.Nop())

	thumb := newThumb()
	first := p.Present(thumb, "/tmp/a.png", nil)
	second := p.Present(thumb, "/tmp/a.png", nil)
	if first == uuid.Nil || second != uuid.Nil {
		t.Fatalf("expected only one toast, got %s and %s", first, second)
	}
	p.Wait()
}

func TestActivateRevealsWhenSaveToDisk(t *testing.T) {
	store := newStore(t, map[settings.Key]string{settings.ToastTimeout: "1"})
	revealer := &stubRevealer{}
	renderer := &recordingRenderer{}
	p := NewPresenter(store, Options{Fade: 0, Renderer: renderer, Revealer: revealer}, zerolog.Nop())

	id := p.Present(newThumb(), "/tmp/shot.png", nil)
	waitForState(t, p, id, Visible)

	revealed, err := p.Activate(context.Background(), id)
	if err != nil || !revealed {
		t.Fatalf("expected reveal, got %v %v", revealed, err)
	}
	if len(revealer.paths) != 1 || revealer.paths[0] != "/tmp/shot.png" {
		t.Fatalf("unexpected reveals %v", revealer.paths)
	}
	for _, v := range p.Snapshot() {
		if v.ID == id && v.State != Visible {
			t.Fatalf("activation must not advance the state machine")
		}
	}

	if err := store.Set(context.Background(), settings.SaveToDisk, "false"); err != nil {
		t.Fatalf("set: %v", err)
	}
	revealed, err = p.Activate(context.Background(), id)
	if err != nil || revealed {
		t.Fatalf("expected no reveal with saveToDisk off")
	}
	p.Wait()

	if _, err := p.Activate(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after dismissal, got %v", err)
	}
}

func TestDragHidesAndResumes(t *testing.T) {
	store := newStore(t, map[settings.Key]string{settings.ToastTimeout: "1"})
	renderer := &recordingRenderer{}
	p := NewPresenter(store, Options{Fade: 0, Renderer: renderer}, zerolog.Nop())

	id := p.Present(newThumb(), "/tmp/dir/clip.mov", nil)
	waitForState(t, p, id, Visible)

	payload, err := p.BeginDrag(id)
	if err != nil {
		t.Fatalf("begin drag: %v", err)
	}
	if payload.Path != "/tmp/dir/clip.mov" || payload.SuggestedName != "clip.mov" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	views := renderer.all()
	last := views[len(views)-1]
	if !last.Dragging || last.Alpha != 0 {
		t.Fatalf("expected hidden render while dragging, got %+v", last)
	}

	if err := p.EndDrag(id); err != nil {
		t.Fatalf("end drag: %v", err)
	}
	views = renderer.all()
	last = views[len(views)-1]
	if last.Dragging || last.Alpha != 1 {
		t.Fatalf("expected rendering resumed, got %+v", last)
	}
	p.Wait()
}

func TestFramePlacement(t *testing.T) {
	frame := Frame(image.Rect(0, 0, 1440, 900))
	if frame.Min.X != 1440-250-20 || frame.Min.Y != 20 {
		t.Fatalf("unexpected origin %v", frame.Min)
	}
	if frame.Dx() != Width || frame.Dy() != Height {
		t.Fatalf("unexpected size %v", frame.Size())
	}
}

func TestRevealCommand(t *testing.T) {
	name, args := revealCommand("darwin", "/Users/a/shot.png")
	if name != "open" || len(args) != 2 || args[0] != "-R" {
		t.Fatalf("unexpected darwin command %s %v", name, args)
	}
	name, args = revealCommand("linux", "/home/a/shot.png")
	if name != "xdg-open" || args[0] != "/home/a" {
		t.Fatalf("unexpected linux command %s %v", name, args)
	}
}
