package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// Reader é a visão somente leitura entregue aos componentes do pipeline.
type Reader interface {
	Get(key Key) (string, error)
	String(key Key) string
	Bool(key Key) bool
	Int(key Key) int
}

// Backend persiste cada chave de forma independente.
type Backend interface {
	Load(ctx context.Context) (map[Key]string, error)
	Save(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
}

// Store guarda as preferências do processo. Apenas o dono designado
// (handlers de settings e CLI) deve manter a referência *Store.
type Store struct {
	mu        sync.RWMutex
	backend   Backend
	overrides map[Key]string
	logger    zerolog.Logger
}

// Open carrega os valores persistidos no backend.
func Open(ctx context.Context, backend Backend, logger zerolog.Logger) (*Store, error) {
	values, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: carregar: %w", err)
	}

	overrides := make(map[Key]string, len(values))
	for key, value := range values {
		def, err := Lookup(key)
		if err != nil {
			logger.Warn().Str("key", string(key)).Msg("chave persistida desconhecida ignorada")
			continue
		}
		normalized, err := def.Normalize(value)
		if err != nil {
			logger.Warn().Err(err).Str("key", string(key)).Msg("valor persistido inválido, usando default")
			continue
		}
		overrides[key] = normalized
	}

	return &Store{backend: backend, overrides: overrides, logger: logger}, nil
}

// Get devolve o valor efetivo (persistido ou default).
func (s *Store) Get(key Key) (string, error) {
	def, err := Lookup(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[key]; ok {
		return v, nil
	}
	return def.Default, nil
}

// String devolve o valor bruto; chaves desconhecidas resultam em string vazia.
func (s *Store) String(key Key) string {
	v, _ := s.Get(key)
	return v
}

// Bool interpreta o valor como booleano.
func (s *Store) Bool(key Key) bool {
	v, err := s.Get(key)
	if err != nil {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// Int interpreta o valor como inteiro.
func (s *Store) Int(key Key) int {
	v, err := s.Get(key)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}

// Set valida e persiste o valor.
func (s *Store) Set(ctx context.Context, key Key, value string) error {
	def, err := Lookup(key)
	if err != nil {
		return err
	}
	normalized, err := def.Normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, key, normalized); err != nil {
		return fmt.Errorf("settings: salvar %s: %w", key, err)
	}
	s.overrides[key] = normalized
	s.logger.Debug().Str("key", string(key)).Msg("preferência atualizada")
	return nil
}

// ResetToDefault remove o valor persistido, voltando ao default documentado.
func (s *Store) ResetToDefault(ctx context.Context, key Key) error {
	if _, err := Lookup(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("settings: resetar %s: %w", key, err)
	}
	delete(s.overrides, key)
	s.logger.Debug().Str("key", string(key)).Msg("preferência restaurada ao default")
	return nil
}

// ResetAll restaura todas as chaves, uma a uma.
func (s *Store) ResetAll(ctx context.Context) error {
	for _, key := range Keys() {
		if err := s.ResetToDefault(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Entry é o valor efetivo de uma chave com metadados.
type Entry struct {
	Key        Key    `json:"key"`
	Value      string `json:"value"`
	Default    string `json:"default"`
	Kind       string `json:"kind"`
	Overridden bool   `json:"overridden"`
}

// All lista todas as chaves na ordem de declaração.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(definitions))
	for _, def := range definitions {
		value, ok := s.overrides[def.Key]
		if !ok {
			value = def.Default
		}
		entries = append(entries, Entry{
			Key:        def.Key,
			Value:      value,
			Default:    def.Default,
			Kind:       def.Kind.String(),
			Overridden: ok,
		})
	}
	return entries
}
