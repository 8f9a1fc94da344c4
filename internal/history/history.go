package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKey é a lista usada no redis.
	DefaultKey = "ishare:history"
	// MaxEntries limita o histórico mantido.
	MaxEntries = 100
)

// Entry registra um upload concluído (com sucesso ou não).
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Path       string    `json:"path"`
	Host       string    `json:"host"`
	Link       string    `json:"link,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}

// OK indica upload com link.
func (e Entry) OK() bool { return e.Error == "" && e.Link != "" }

// Recorder persiste e lista entradas mais recentes primeiro.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

func normalize(entry Entry) Entry {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	return entry
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxEntries {
		return MaxEntries
	}
	return limit
}

// RedisClient é o subconjunto do go-redis usado pelo recorder.
type RedisClient interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisRecorder guarda o histórico numa lista LPUSH/LTRIM.
type RedisRecorder struct {
	client RedisClient
	key    string
}

func NewRedisRecorder(client RedisClient, key string) *RedisRecorder {
	if key == "" {
		key = DefaultKey
	}
	return &RedisRecorder{client: client, key: key}
}

func (r *RedisRecorder) Record(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(normalize(entry))
	if err != nil {
		return err
	}

	if err := r.client.LPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("history: gravar no redis: %w", err)
	}
	if err := r.client.LTrim(ctx, r.key, 0, MaxEntries-1).Err(); err != nil {
		return fmt.Errorf("history: limitar lista: %w", err)
	}
	return nil
}

func (r *RedisRecorder) List(ctx context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	raw, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("history: ler do redis: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MemoryRecorder mantém o histórico em memória.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append([]Entry{normalize(entry)}, m.entries...)
	if len(m.entries) > MaxEntries {
		m.entries = m.entries[:MaxEntries]
	}
	return nil
}

func (m *MemoryRecorder) List(ctx context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = clampLimit(limit)
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, limit)
	copy(out, m.entries[:limit])
	return out, nil
}
