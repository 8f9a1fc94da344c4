package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat indica formato de exportação desconhecido.
var ErrUnsupportedFormat = errors.New("settings: formato não suportado")

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseFormat normaliza o nome do formato (json é o padrão).
func ParseFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw)
}

// Export serializa os valores efetivos de todas as chaves.
func (s *Store) Export(format string) ([]byte, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]string, len(definitions))
	for _, entry := range s.All() {
		doc[string(entry.Key)] = entry.Value
	}

	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import valida todas as chaves antes de gravar. Backends que implementam
// BatchSaver gravam tudo de uma vez; os demais, chave a chave.
func (s *Store) Import(ctx context.Context, data []byte, format string) (int, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return 0, err
	}

	var doc map[string]string
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	type pending struct {
		key   Key
		value string
	}
	batch := make([]pending, 0, len(doc))
	for rawKey, value := range doc {
		key, err := ParseKey(rawKey)
		if err != nil {
			return 0, err
		}
		def, _ := Lookup(key)
		if _, err := def.Normalize(value); err != nil {
			return 0, err
		}
		batch = append(batch, pending{key: key, value: value})
	}

	if saver, ok := s.backend.(BatchSaver); ok {
		values := make(map[Key]string, len(batch))
		for _, item := range batch {
			def, _ := Lookup(item.key)
			values[item.key], _ = def.Normalize(item.value)
		}
		return len(values), s.saveBatch(ctx, saver, values)
	}

	for i, item := range batch {
		if err := s.Set(ctx, item.key, item.value); err != nil {
			return i, err
		}
	}
	return len(batch), nil
}

// BatchSaver é implementado por backends capazes de gravar várias chaves
// atomicamente.
type BatchSaver interface {
	SaveBatch(ctx context.Context, values map[Key]string) error
}

func (s *Store) saveBatch(ctx context.Context, saver BatchSaver, values map[Key]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saver.SaveBatch(ctx, values); err != nil {
		return fmt.Errorf("settings: importar: %w", err)
	}
	for key, value := range values {
		s.overrides[key] = value
	}
	s.logger.Debug().Int("keys", len(values)).Msg("preferências importadas")
	return nil
}
