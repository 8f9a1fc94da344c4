package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica que o arquivo capturado não existe.
	ErrNotFound = errors.New("capture: arquivo não encontrado")
	// ErrNotFile indica que o caminho aponta para um diretório.
	ErrNotFile = errors.New("capture: caminho não é arquivo")
)

// MediaKind classifica o artefato.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Artifact referencia um arquivo produzido por uma captura.
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	Kind      MediaKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Name devolve o nome do arquivo sem diretório.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// KindFromPath deriva o tipo de mídia pela extensão.
func KindFromPath(path string) MediaKind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mov", "mp4":
		return KindVideo
	default:
		return KindImage
	}
}

// NewArtifact valida o arquivo e devolve sua referência.
func NewArtifact(path string) (Artifact, error) {
	expanded, err := ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return Artifact{}, err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return Artifact{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return Artifact{}, err
	}
	if info.IsDir() {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFile, abs)
	}

	return Artifact{
		ID:        uuid.New(),
		Path:      abs,
		Kind:      KindFromPath(abs),
		CreatedAt: info.ModTime().UTC(),
	}, nil
}

// ExpandHome troca o prefixo ~/ pelo diretório do usuário.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// FileName expande o template de nome e acrescenta a extensão.
// Marcadores: {date} (2006-01-02), {time} (15-04-05), {unix}, {uuid}.
// Template sem marcador recebe " {date} {time}" para não sobrescrever capturas anteriores.
func FileName(template, ext string, now time.Time) string {
	name := strings.TrimSpace(template)
	if name == "" {
		name = "ishare"
	}
	if !hasMarker(name) {
		name += " {date} {time}"
	}
	name = strings.NewReplacer(
		"{date}", now.Format("2006-01-02"),
		"{time}", now.Format("15-04-05"),
		"{unix}", strconv.FormatInt(now.Unix(), 10),
		"{uuid}", uuid.NewString(),
	).Replace(name)
	name = strings.ReplaceAll(name, string(filepath.Separator), "-")

	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

var markers = []string{"{date}", "{time}", "{unix}", "{uuid}"}

func hasMarker(template string) bool {
	for _, m := range markers {
		if strings.Contains(template, m) {
			return true
		}
	}
	return false
}

// freePath devolve path, ou path com sufixo " (n)" quando o arquivo já existe.
func freePath(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := path
	for n := 2; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if n > 1000 {
			return "", fmt.Errorf("capture: sem nome livre para %s", path)
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
}
