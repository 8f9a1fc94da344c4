package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/settings"
)

var (
	// ErrCancelled indica que o binário terminou sem gerar arquivo (seleção cancelada).
	ErrCancelled = errors.New("capture: captura cancelada")
	// ErrNoDisplay indica ausência de monitor ativo para captura interna.
	ErrNoDisplay = errors.New("capture: nenhum monitor ativo")
	// ErrUnsupportedType indica formato que a captura interna não sabe codificar.
	ErrUnsupportedType = errors.New("capture: formato não suportado na captura interna")
	// ErrInvalidMode indica modo de captura desconhecido.
	ErrInvalidMode = errors.New("capture: modo inválido")
)

// Mode descreve a área capturada.
type Mode string

const (
	ModeScreen Mode = "screen"
	ModeWindow Mode = "window"
	ModeRegion Mode = "region"
)

// ParseMode valida o modo informado.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeScreen:
		return ModeScreen, nil
	case ModeWindow:
		return ModeWindow, nil
	case ModeRegion:
		return ModeRegion, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidMode, raw)
}

// CommandFunc executa o binário de captura.
type CommandFunc func(ctx context.Context, name string, args ...string) error

// GrabFunc captura o monitor principal.
type GrabFunc func() (image.Image, error)

// Runner produz arquivos de captura no diretório configurado.
type Runner struct {
	settings settings.Reader
	logger   zerolog.Logger
	command  CommandFunc
	grab     GrabFunc
	now      func() time.Time
}

// RunnerOption personaliza o Runner.
type RunnerOption func(*Runner)

// WithCommand troca a execução do binário externo.
func WithCommand(fn CommandFunc) RunnerOption {
	return func(r *Runner) { r.command = fn }
}

// WithGrab troca a captura interna do monitor.
func WithGrab(fn GrabFunc) RunnerOption {
	return func(r *Runner) { r.grab = fn }
}

// NewRunner cria o runner; por padrão executa o binário configurado e captura via kbinani/screenshot.
func NewRunner(reader settings.Reader, logger zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		settings: reader,
		logger:   logger,
		command:  runCommand,
		grab:     grabPrimaryDisplay,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capture executa a captura e devolve o caminho do arquivo gerado.
func (r *Runner) Capture(ctx context.Context, mode Mode) (string, error) {
	dir, err := ExpandHome(r.settings.String(settings.CapturePath))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("capture: criar diretório: %w", err)
	}

	ext := r.settings.String(settings.CaptureFileType)
	// O destino nunca existe antes da execução: arquivo ausente depois dela é cancelamento.
	path, err := freePath(filepath.Join(dir, FileName(r.settings.String(settings.CaptureFileName), ext, r.now())))
	if err != nil {
		return "", err
	}

	binary := strings.TrimSpace(r.settings.String(settings.CaptureBinary))
	if binary == "" {
		if err := r.captureInternal(path, ext); err != nil {
			return "", err
		}
	} else {
		args := append(modeArgs(mode), "-t", ext, path)
		r.logger.Debug().Str("binary", binary).Strs("args", args).Msg("executando captura")
		if err := r.command(ctx, binary, args...); err != nil {
			return "", fmt.Errorf("capture: %s: %w", binary, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(path)
		return "", ErrCancelled
	}
	r.logger.Info().Str("path", path).Str("mode", string(mode)).Msg("captura concluída")
	return path, nil
}

func (r *Runner) captureInternal(path, ext string) error {
	var encode func(f *os.File, img image.Image) error
	switch ext {
	case "png":
		encode = func(f *os.File, img image.Image) error { return png.Encode(f, img) }
	case "jpg":
		encode = func(f *os.File, img image.Image) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 90}) }
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	img, err := r.grab()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func modeArgs(mode Mode) []string {
	switch mode {
	case ModeRegion:
		return []string{"-i"}
	case ModeWindow:
		return []string{"-i", "-w"}
	default:
		return []string{}
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func grabPrimaryDisplay() (image.Image, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("capture: monitor principal: %w", err)
	}
	return img, nil
}

// PrimaryDisplay devolve as dimensões do monitor principal, se houver.
func PrimaryDisplay() (image.Rectangle, bool) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, false
	}
	return screenshot.GetDisplayBounds(0), true
}
