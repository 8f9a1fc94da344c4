package toast

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/settings"
	"github.com/urbanbyte/ishare/internal/thumbnail"
)

var (
	// ErrNotFound indica toast inexistente ou já dispensado.
	ErrNotFound = errors.New("toast: não encontrado")
	// ErrNotVisible indica interação fora do estado Visible.
	ErrNotVisible = errors.New("toast: não está visível")
)

// Renderer desenha o toast; em modo headless apenas registra.
type Renderer interface {
	Render(view View)
}

// Revealer abre o gerenciador de arquivos destacando o caminho.
type Revealer interface {
	Reveal(ctx context.Context, path string) error
}

// Options configura o Presenter.
type Options struct {
	Fade     time.Duration
	Display  func() image.Rectangle
	Renderer Renderer
	Revealer Revealer
	// Events recebe as transições; envios não bloqueiam.
	Events chan<- Event
}

// Presenter exibe toasts e conduz a máquina de estados de cada um.
type Presenter struct {
	settings settings.Reader
	opts     Options
	logger   zerolog.Logger

	mu         sync.Mutex
	toasts     map[uuid.UUID]*Toast
	byArtifact map[uuid.UUID]uuid.UUID
	wg         sync.WaitGroup
}

// Toast é uma instância em exibição.
type Toast struct {
	ID         uuid.UUID
	ArtifactID uuid.UUID
	Path       string

	state    State
	dragging bool
	frame    image.Rectangle
	thumb    *thumbnail.Thumbnail
}

// NewPresenter cria o apresentador; sem Display ou Renderer usa tela 1920x1080 e LogRenderer.
func NewPresenter(reader settings.Reader, opts Options, logger zerolog.Logger) *Presenter {
	if opts.Fade < 0 {
		opts.Fade = 0
	}
	if opts.Display == nil {
		opts.Display = func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) }
	}
	if opts.Renderer == nil {
		opts.Renderer = LogRenderer{Logger: logger}
	}
	return &Presenter{
		settings:   reader,
		opts:       opts,
		logger:     logger,
		toasts:     make(map[uuid.UUID]*Toast),
		byArtifact: make(map[uuid.UUID]uuid.UUID),
	}
}

// Present mostra a prévia. Sem prévia, ou com um toast do mesmo artefato
// ainda na tela, nada é exibido e o retorno é uuid.Nil.
func (p *Presenter) Present(thumb *thumbnail.Thumbnail, sourcePath string, onDismiss func()) uuid.UUID {
	if thumb == nil {
		return uuid.Nil
	}

	p.mu.Lock()
	if _, exists := p.byArtifact[thumb.ArtifactID]; exists {
		p.mu.Unlock()
		p.logger.Debug().Str("artifact_id", thumb.ArtifactID.String()).Msg("toast já exibido para o artefato")
		return uuid.Nil
	}

	t := &Toast{
		ID:         uuid.New(),
		ArtifactID: thumb.ArtifactID,
		Path:       sourcePath,
		state:      Hidden,
		frame:      Frame(p.opts.Display()),
		thumb:      thumb,
	}
	p.toasts[t.ID] = t
	p.byArtifact[t.ArtifactID] = t.ID
	p.wg.Add(1)
	p.mu.Unlock()

	timeout := time.Duration(p.settings.Int(settings.ToastTimeout)) * time.Second
	go p.run(t, timeout, onDismiss)

	return t.ID
}

// run percorre Hidden -> FadingIn -> Visible -> FadingOut -> Hidden uma única vez.
func (p *Presenter) run(t *Toast, timeout time.Duration, onDismiss func()) {
	defer p.wg.Done()

	p.advance(t)
	sleep(p.opts.Fade)
	p.advance(t)
	sleep(timeout)
	p.advance(t)
	sleep(p.opts.Fade)
	p.advance(t)

	p.mu.Lock()
	delete(p.toasts, t.ID)
	delete(p.byArtifact, t.ArtifactID)
	p.mu.Unlock()

	t.thumb.Release()
	if onDismiss != nil {
		onDismiss()
	}
}

func (p *Presenter) advance(t *Toast) {
	p.mu.Lock()
	from := t.state
	t.state = next[from]
	view := p.viewLocked(t)
	p.mu.Unlock()

	p.opts.Renderer.Render(view)
	p.emit(Event{ToastID: t.ID, ArtifactID: t.ArtifactID, From: from, To: view.State, At: time.Now()})
}

func (p *Presenter) emit(ev Event) {
	if p.opts.Events == nil {
		return
	}
	select {
	case p.opts.Events <- ev:
	default:
		p.logger.Warn().Str("toast_id", ev.ToastID.String()).Msg("evento de toast descartado")
	}
}

// Activate trata o clique principal: com saveToDisk ativo revela o arquivo.
// Não altera o estado do toast.
func (p *Presenter) Activate(ctx context.Context, id uuid.UUID) (bool, error) {
	p.mu.Lock()
	t, ok := p.toasts[id]
	if !ok {
		p.mu.Unlock()
		return false, ErrNotFound
	}
	if t.state != Visible {
		p.mu.Unlock()
		return false, ErrNotVisible
	}
	path := t.Path
	p.mu.Unlock()

	if !p.settings.Bool(settings.SaveToDisk) || p.opts.Revealer == nil {
		return false, nil
	}
	if err := p.opts.Revealer.Reveal(ctx, path); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("falha ao revelar arquivo")
		return false, err
	}
	return true, nil
}

// BeginDrag oculta o toast e expõe o arquivo como payload transferível.
func (p *Presenter) BeginDrag(id uuid.UUID) (DragPayload, error) {
	p.mu.Lock()
	t, ok := p.toasts[id]
	if !ok {
		p.mu.Unlock()
		return DragPayload{}, ErrNotFound
	}
	if t.state != Visible {
		p.mu.Unlock()
		return DragPayload{}, ErrNotVisible
	}
	t.dragging = true
	view := p.viewLocked(t)
	p.mu.Unlock()

	p.opts.Renderer.Render(view)
	return DragPayload{Path: t.Path, SuggestedName: filepath.Base(t.Path)}, nil
}

// EndDrag retoma a renderização após o drop.
func (p *Presenter) EndDrag(id uuid.UUID) error {
	p.mu.Lock()
	t, ok := p.toasts[id]
	if !ok {
		p.mu.Unlock()
		return ErrNotFound
	}
	if !t.dragging {
		p.mu.Unlock()
		return nil
	}
	t.dragging = false
	view := p.viewLocked(t)
	p.mu.Unlock()

	p.opts.Renderer.Render(view)
	return nil
}

// Snapshot lista os toasts ainda ativos.
func (p *Presenter) Snapshot() []View {
	p.mu.Lock()
	defer p.mu.Unlock()

	views := make([]View, 0, len(p.toasts))
	for _, t := range p.toasts {
		views = append(views, p.viewLocked(t))
	}
	return views
}

// Wait bloqueia até que todos os toasts terminem.
func (p *Presenter) Wait() {
	p.wg.Wait()
}

func (p *Presenter) viewLocked(t *Toast) View {
	alpha := 0.0
	switch t.state {
	case FadingIn, Visible:
		alpha = 1
	}
	if t.dragging {
		alpha = 0
	}
	return View{
		ID:         t.ID,
		ArtifactID: t.ArtifactID,
		Path:       t.Path,
		State:      t.state,
		Dragging:   t.dragging,
		Alpha:      alpha,
		Fade:       p.opts.Fade,
		Frame:      t.frame,
		Width:      t.thumb.Width,
		Height:     t.thumb.Height,
	}
}

func sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	<-timer.C
}

// LogRenderer registra as mudanças de estado no log.
type LogRenderer struct {
	Logger zerolog.Logger
}

func (r LogRenderer) Render(view View) {
	r.Logger.Debug().
		Str("toast_id", view.ID.String()).
		Str("state", view.State.String()).
		Float64("alpha", view.Alpha).
		Bool("dragging", view.Dragging).
		Int("x", view.Frame.Min.X).
		Int("y", view.Frame.Min.Y).
		Msg("toast")
}
