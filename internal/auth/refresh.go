package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidRefresh é retornado quando o token de refresh é inválido ou expirado.
	ErrInvalidRefresh = errors.New("refresh token inválido")
)

// GenerateRefreshToken cria token aleatório seguro e seu hash persistível.
func GenerateRefreshToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashRefreshToken(raw)
	return raw, hashed, nil
}

// HashRefreshToken produz hash SHA-256 base64.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey monta chave única para guardar estado do refresh.
func RefreshRedisKey(hash string) string {
	return fmt.Sprintf("ishare:refresh:%s:%s", Audience, hash)
}

// Session é o estado persistido de um refresh token.
type Session struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles"`
}

// SessionStore guarda sessões de refresh por hash; Take consome a sessão.
type SessionStore interface {
	Put(ctx context.Context, hash string, session Session, ttl time.Duration) error
	Take(ctx context.Context, hash string) (Session, error)
}

// RedisCommands é o subconjunto do go-redis usado pelas sessões.
type RedisCommands interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

type RedisSessionStore struct {
	client RedisCommands
}

func NewRedisSessionStore(client RedisCommands) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Put(ctx context.Context, hash string, session Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, RefreshRedisKey(hash), payload, ttl).Err()
}

func (s *RedisSessionStore) Take(ctx context.Context, hash string) (Session, error) {
	raw, err := s.client.GetDel(ctx, RefreshRedisKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, ErrInvalidRefresh
	}
	return session, nil
}

type memorySession struct {
	session Session
	expires time.Time
}

// MemorySessionStore é usado quando não há redis configurado.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession), now: time.Now}
}

func (s *MemorySessionStore) Put(ctx context.Context, hash string, session Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[hash] = memorySession{session: session, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Take(ctx context.Context, hash string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[hash]
	delete(s.sessions, hash)
	if !ok || s.now().After(entry.expires) {
		return Session{}, ErrInvalidRefresh
	}
	return entry.session, nil
}
