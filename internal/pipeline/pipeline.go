package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/capture"
	"github.com/urbanbyte/ishare/internal/settings"
	"github.com/urbanbyte/ishare/internal/thumbnail"
	"github.com/urbanbyte/ishare/internal/upload"
)

var (
	// ErrUnknownArtifact indica artefato não submetido nesta execução.
	ErrUnknownArtifact = errors.New("pipeline: artefato desconhecido")
	// ErrStopped indica que o loop de apresentação já terminou.
	ErrStopped = errors.New("pipeline: encerrado")
)

// maxArtifacts limita quantos artefatos ficam disponíveis para upload manual.
const maxArtifacts = 256

type Thumbnailer interface {
	GenerateAsync(ctx context.Context, artifact capture.Artifact) <-chan thumbnail.Outcome
}

type Presenter interface {
	Present(thumb *thumbnail.Thumbnail, sourcePath string, onDismiss func()) uuid.UUID
}

type Uploader interface {
	Upload(ctx context.Context, path string, onComplete func(upload.Result))
}

type Capturer interface {
	Capture(ctx context.Context, mode capture.Mode) (string, error)
}

// Deps reúne os colaboradores do pipeline.
type Deps struct {
	Settings   settings.Reader
	Thumbnails Thumbnailer
	Presenter  Presenter
	Uploads    Uploader
	Capturer   Capturer
	// OnUpload é chamado uma vez por upload, depois dos efeitos do cliente.
	OnUpload func(capture.Artifact, upload.Result)
}

// Pipeline liga captura, prévia, toast e upload. Apenas Run constrói toasts.
type Pipeline struct {
	deps   Deps
	logger zerolog.Logger

	outcomes chan thumbnail.Outcome
	done     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	artifacts map[uuid.UUID]capture.Artifact
	order     []uuid.UUID

	wg sync.WaitGroup
}

func New(deps Deps, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		deps:      deps,
		logger:    logger.With().Str("component", "pipeline").Logger(),
		outcomes:  make(chan thumbnail.Outcome),
		done:      make(chan struct{}),
		artifacts: make(map[uuid.UUID]capture.Artifact),
	}
}

// Run é o loop de apresentação; termina quando ctx é cancelado.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.stopOnce.Do(func() { close(p.done) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case outcome := <-p.outcomes:
			p.present(outcome)
		}
	}
}

func (p *Pipeline) present(outcome thumbnail.Outcome) {
	if outcome.Err != nil || outcome.Thumbnail == nil {
		p.logger.Warn().Err(outcome.Err).Str("path", outcome.Artifact.Path).Msg("toast ignorado: prévia indisponível")
		return
	}

	artifact := outcome.Artifact
	id := p.deps.Presenter.Present(outcome.Thumbnail, artifact.Path, func() {
		p.logger.Debug().Str("artifact_id", artifact.ID.String()).Msg("toast dispensado")
	})
	if id == uuid.Nil {
		outcome.Thumbnail.Release()
		return
	}
	p.logger.Info().Str("toast_id", id.String()).Str("path", artifact.Path).Msg("toast exibido")
}

// Submit registra um arquivo capturado, dispara a prévia e o upload automático.
func (p *Pipeline) Submit(ctx context.Context, path string) (capture.Artifact, error) {
	select {
	case <-p.done:
		return capture.Artifact{}, ErrStopped
	default:
	}

	artifact, err := capture.NewArtifact(path)
	if err != nil {
		return capture.Artifact{}, err
	}
	p.remember(artifact)

	background := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go p.forward(p.deps.Thumbnails.GenerateAsync(background, artifact))

	if p.deps.Settings.String(settings.UploadType) != settings.UploadNone {
		p.startUpload(background, artifact)
	}

	p.logger.Info().Str("artifact_id", artifact.ID.String()).Str("name", artifact.Name()).Str("kind", string(artifact.Kind)).Msg("captura recebida")
	return artifact, nil
}

// forward entrega a prévia ao loop; se o loop já terminou, a prévia é liberada.
func (p *Pipeline) forward(ch <-chan thumbnail.Outcome) {
	defer p.wg.Done()
	outcome, ok := <-ch
	if !ok {
		return
	}
	select {
	case p.outcomes <- outcome:
	case <-p.done:
		if outcome.Thumbnail != nil {
			outcome.Thumbnail.Release()
		}
	}
}

// Upload envia manualmente um artefato conhecido.
func (p *Pipeline) Upload(ctx context.Context, artifactID uuid.UUID) (capture.Artifact, error) {
	p.mu.Lock()
	artifact, ok := p.artifacts[artifactID]
	p.mu.Unlock()
	if !ok {
		return capture.Artifact{}, fmt.Errorf("%w: %s", ErrUnknownArtifact, artifactID)
	}
	p.startUpload(context.WithoutCancel(ctx), artifact)
	return artifact, nil
}

// Capture executa o mecanismo de captura e submete o arquivo gerado.
func (p *Pipeline) Capture(ctx context.Context, mode capture.Mode) (capture.Artifact, error) {
	if p.deps.Capturer == nil {
		return capture.Artifact{}, errors.New("pipeline: captura não configurada")
	}
	path, err := p.deps.Capturer.Capture(ctx, mode)
	if err != nil {
		return capture.Artifact{}, err
	}
	return p.Submit(ctx, path)
}

// Artifact devolve um artefato submetido.
func (p *Pipeline) Artifact(id uuid.UUID) (capture.Artifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	artifact, ok := p.artifacts[id]
	return artifact, ok
}

// Wait aguarda as entregas de prévia pendentes.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) startUpload(ctx context.Context, artifact capture.Artifact) {
	if p.deps.Uploads == nil {
		return
	}
	p.deps.Uploads.Upload(ctx, artifact.Path, func(result upload.Result) {
		if p.deps.OnUpload != nil {
			p.deps.OnUpload(artifact, result)
		}
	})
}

func (p *Pipeline) remember(artifact capture.Artifact) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.artifacts[artifact.ID] = artifact
	p.order = append(p.order, artifact.ID)
	if len(p.order) > maxArtifacts {
		delete(p.artifacts, p.order[0])
		p.order = p.order[1:]
	}
}
