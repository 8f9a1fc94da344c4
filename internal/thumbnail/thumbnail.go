package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/urbanbyte/ishare/internal/capture"
)

// FrameOffset é o instante do vídeo usado como prévia.
const FrameOffset = 2 * time.Second

// ErrDecode cobre qualquer falha ao produzir a prévia.
var ErrDecode = errors.New("thumbnail: falha ao decodificar")

// Thumbnail é a imagem decodificada associada a um único artefato.
type Thumbnail struct {
	ArtifactID uuid.UUID
	Width      int
	Height     int

	mu    sync.Mutex
	image image.Image
}

// New embrulha uma imagem já decodificada.
func New(artifactID uuid.UUID, img image.Image) *Thumbnail {
	bounds := img.Bounds()
	return &Thumbnail{ArtifactID: artifactID, Width: bounds.Dx(), Height: bounds.Dy(), image: img}
}

// Image devolve a imagem enquanto a prévia não foi liberada.
func (t *Thumbnail) Image() image.Image {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.image
}

// Release descarta a imagem; chamado quando o toast dono some.
func (t *Thumbnail) Release() {
	t.mu.Lock()
	t.image = nil
	t.mu.Unlock()
}

// FrameExtractor extrai um quadro de um vídeo.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, path string, offset time.Duration) (image.Image, error)
}

// FFmpegExtractor usa o binário ffmpeg; a rotação do stream é aplicada pelo próprio ffmpeg.
type FFmpegExtractor struct {
	Binary string
}

func (f FFmpegExtractor) ExtractFrame(ctx context.Context, path string, offset time.Duration) (image.Image, error) {
	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	seconds := strconv.FormatFloat(offset.Seconds(), 'f', 3, 64)
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-ss", seconds,
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg: nenhum quadro em %s", seconds)
	}

	img, _, err := image.Decode(&stdout)
	return img, err
}

// Generator produz prévias para artefatos de imagem e vídeo.
type Generator struct {
	extractor FrameExtractor
	logger    zerolog.Logger
}

// NewGenerator cria o gerador; sem extractor, quadros de vídeo vêm do ffmpeg.
func NewGenerator(extractor FrameExtractor, logger zerolog.Logger) *Generator {
	if extractor == nil {
		extractor = FFmpegExtractor{}
	}
	return &Generator{extractor: extractor, logger: logger}
}

// Generate decodifica a prévia do artefato. Falhas sempre envolvem ErrDecode.
func (g *Generator) Generate(ctx context.Context, artifact capture.Artifact) (thumb *Thumbnail, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			thumb = nil
			err = fmt.Errorf("%w: panic: %v", ErrDecode, rec)
		}
	}()

	var img image.Image
	switch artifact.Kind {
	case capture.KindVideo:
		img, err = g.extractor.ExtractFrame(ctx, artifact.Path, FrameOffset)
	default:
		img, err = decodeFile(artifact.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, artifact.Path, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s: imagem vazia", ErrDecode, artifact.Path)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s: dimensões inválidas", ErrDecode, artifact.Path)
	}

	return New(artifact.ID, img), nil
}

// Outcome é o resultado entregue por GenerateAsync.
type Outcome struct {
	Artifact  capture.Artifact
	Thumbnail *Thumbnail
	Err       error
}

// GenerateAsync roda a decodificação fora do contexto chamador e entrega
// exatamente um Outcome no canal devolvido.
func (g *Generator) GenerateAsync(ctx context.Context, artifact capture.Artifact) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		start := time.Now()
		thumb, err := g.Generate(ctx, artifact)
		if err != nil {
			g.logger.Warn().Err(err).Str("artifact_id", artifact.ID.String()).Msg("prévia não gerada")
		} else {
			g.logger.Debug().
				Str("artifact_id", artifact.ID.String()).
				Int("width", thumb.Width).
				Int("height", thumb.Height).
				Dur("duration", time.Since(start)).
				Msg("prévia gerada")
		}
		out <- Outcome{Artifact: artifact, Thumbnail: thumb, Err: err}
	}()
	return out
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
