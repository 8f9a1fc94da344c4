package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier anuncia o resultado de uma operação.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type Message struct {
	Title    string
	Text     string
	Severity string
}

// LogNotifier escreve a notificação no log estruturado.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, msg Message) error {
	event := l.Logger.Info()
	switch msg.Severity {
	case SeverityWarning:
		event = l.Logger.Warn()
	case SeverityError:
		event = l.Logger.Error()
	}
	event.Str("title", msg.Title).Msg(msg.Text)
	return nil
}

type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	if s == nil || s.webhookURL == "" {
		return errors.New("slack notifier not configured")
	}

	body, err := json.Marshal(map[string]any{"text": formatSlackMessage(msg)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("slack notification failed")
	}
	return nil
}

func formatSlackMessage(msg Message) string {
	emoji := ":camera:"
	switch msg.Severity {
	case SeverityWarning:
		emoji = ":warning:"
	case SeverityError:
		emoji = ":rotating_light:"
	}
	if msg.Title != "" {
		return emoji + " *" + msg.Title + "*\n" + msg.Text
	}
	return emoji + " " + msg.Text
}

// Multi repassa a mensagem para todos os notifiers; devolve o primeiro erro.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
