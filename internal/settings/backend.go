package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemoryBackend mantém valores apenas no processo.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[Key]string
}

// NewMemoryBackend cria um backend vazio, sem persistência.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[Key]string)}
}

func (m *MemoryBackend) Load(ctx context.Context) (map[Key]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Key]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryBackend) Save(ctx context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileBackend persiste as preferências em um arquivo YAML.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend cria o backend; o arquivo é criado no primeiro Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path devolve o caminho do arquivo.
func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Load(ctx context.Context) (map[Key]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileBackend) Save(ctx context.Context, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *FileBackend) Delete(ctx context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *FileBackend) read() (map[Key]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[Key]string), nil
		}
		return nil, err
	}

	var doc map[string]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("settings: arquivo %s inválido: %w", f.path, err)
	}

	values := make(map[Key]string, len(doc))
	for k, v := range doc {
		values[Key(k)] = v
	}
	return values, nil
}

func (f *FileBackend) write(values map[Key]string) error {
	doc := make(map[string]string, len(values))
	for k, v := range values {
		doc[string(k)] = v
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
