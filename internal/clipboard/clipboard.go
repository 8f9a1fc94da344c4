package clipboard

import (
	"context"
	"errors"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
)

// ErrClosed indica escrita após o encerramento do sink.
var ErrClosed = errors.New("clipboard: sink encerrado")

// Writer grava texto na área de transferência.
type Writer interface {
	WriteText(text string) error
}

// Available indica se a plataforma tem utilitário de área de transferência.
func Available() bool {
	return !clipboard.Unsupported
}

// SystemWriter usa a área de transferência do sistema (pbcopy, xclip, wl-copy...).
type SystemWriter struct{}

func (SystemWriter) WriteText(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard: plataforma sem suporte")
	}
	return clipboard.WriteAll(text)
}

// MemoryWriter guarda o último texto escrito.
type MemoryWriter struct {
	mu     sync.Mutex
	text   string
	writes int
}

func (m *MemoryWriter) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes++
	return nil
}

// Text devolve o conteúdo atual.
func (m *MemoryWriter) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes conta as escritas realizadas.
func (m *MemoryWriter) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type request struct {
	text  string
	reply chan error
}

// Sink serializa todas as escritas em uma única goroutine dona da área de
// transferência. A última escrita na fila prevalece.
type Sink struct {
	writer Writer
	logger zerolog.Logger
	queue  chan request

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewSink inicia a goroutine dona da área de transferência; encerre com Close.
func NewSink(writer Writer, logger zerolog.Logger) *Sink {
	s := &Sink{
		writer:  writer,
		logger:  logger,
		queue:   make(chan request),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Sink) loop() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.queue:
			err := s.writer.WriteText(req.text)
			if err != nil {
				s.logger.Error().Err(err).Msg("falha ao escrever na área de transferência")
			}
			req.reply <- err
		case <-s.done:
			return
		}
	}
}

// Write enfileira o texto e aguarda sua aplicação.
func (s *Sink) Write(ctx context.Context, text string) error {
	req := request{text: text, reply: make(chan error, 1)}
	select {
	case s.queue <- req:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close encerra a goroutine dona.
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.stopped
}
