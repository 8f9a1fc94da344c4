package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/history"
	"github.com/urbanbyte/ishare/internal/notify"
	"github.com/urbanbyte/ishare/internal/settings"
)

// Result é entregue exatamente uma vez por upload.
type Result struct {
	Path     string
	Host     string
	Link     string
	ETag     string
	Err      error
	Duration time.Duration
}

// OK indica que o upload produziu um link.
func (r Result) OK() bool {
	return r.Err == nil && r.Link != ""
}

// ClipboardWriter recebe o link compartilhável.
type ClipboardWriter interface {
	Write(ctx context.Context, text string) error
}

// Client escolhe o host conforme uploadType e aplica os efeitos do resultado.
type Client struct {
	settings  settings.Reader
	hosts     map[string]Uploader
	clipboard ClipboardWriter
	history   history.Recorder
	notifier  notify.Notifier
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// ClientOptions agrupa colaboradores opcionais do Client.
type ClientOptions struct {
	Hosts     map[string]Uploader
	Clipboard ClipboardWriter
	History   history.Recorder
	Notifier  notify.Notifier
}

// NewClient cria o cliente de upload; hosts nulos em opts.Hosts são ignorados.
func NewClient(reader settings.Reader, opts ClientOptions, logger zerolog.Logger) *Client {
	hosts := make(map[string]Uploader, len(opts.Hosts))
	for name, up := range opts.Hosts {
		if up != nil {
			hosts[name] = up
		}
	}
	return &Client{
		settings:  reader,
		hosts:     hosts,
		clipboard: opts.Clipboard,
		history:   opts.History,
		notifier:  opts.Notifier,
		logger:    logger.With().Str("component", "upload").Logger(),
	}
}

// Upload envia o arquivo numa goroutine própria. Uma única tentativa;
// onComplete é chamado uma vez, com sucesso ou falha.
func (c *Client) Upload(ctx context.Context, path string, onComplete func(Result)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result := c.UploadWait(ctx, path)
		if onComplete != nil {
			onComplete(result)
		}
	}()
}

// UploadWait executa o upload de forma síncrona.
func (c *Client) UploadWait(ctx context.Context, path string) Result {
	start := time.Now()
	host := c.settings.String(settings.UploadType)
	result := Result{Path: path, Host: host}

	uploader, ok := c.hosts[host]
	if !ok {
		uploader = NoopUploader{}
	}

	fileType := strings.ToLower(c.settings.String(settings.CaptureFileType))
	input := Input{
		Path:        path,
		FileName:    "ishare." + fileType,
		ContentType: "image/" + fileType,
	}

	out, err := uploader.Upload(ctx, input)
	result.Duration = time.Since(start)
	switch {
	case err != nil:
		result.Err = err
	case out == nil || out.Link == "":
		result.Err = ErrNoLink
	default:
		result.Link = out.Link
		result.ETag = out.ETag
	}

	c.apply(ctx, result)
	return result
}

// Wait bloqueia até que todos os uploads assíncronos terminem.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) apply(ctx context.Context, result Result) {
	name := filepath.Base(result.Path)

	if !result.OK() {
		c.logger.Error().Err(result.Err).Str("path", result.Path).Str("host", result.Host).Msg("falha no upload")
		c.record(ctx, result)
		c.notify(ctx, notify.Message{
			Title:    "Falha no upload",
			Text:     fmt.Sprintf("%s: %v", name, result.Err),
			Severity: notify.SeverityError,
		})
		return
	}

	if c.clipboard != nil {
		if err := c.clipboard.Write(ctx, result.Link); err != nil {
			c.logger.Warn().Err(err).Msg("falha ao copiar link")
		}
	}
	event := c.logger.Info().Str("link", result.Link).Str("host", result.Host).Dur("duration", result.Duration)
	if result.ETag != "" {
		event = event.Str("etag", result.ETag)
	}
	event.Msg("upload concluído")
	c.record(ctx, result)
	c.notify(ctx, notify.Message{Title: "Upload concluído", Text: result.Link, Severity: notify.SeverityInfo})
}

func (c *Client) record(ctx context.Context, result Result) {
	if c.history == nil {
		return
	}
	entry := history.Entry{
		Path:       result.Path,
		Host:       result.Host,
		Link:       result.Link,
		DurationMs: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	if err := c.history.Record(ctx, entry); err != nil {
		c.logger.Warn().Err(err).Msg("falha ao registrar histórico")
	}
}

func (c *Client) notify(ctx context.Context, msg notify.Message) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn().Err(err).Msg("falha ao notificar")
	}
}
