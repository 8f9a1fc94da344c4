package toast

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// SystemRevealer abre o gerenciador de arquivos da plataforma.
type SystemRevealer struct{}

func (SystemRevealer) Reveal(ctx context.Context, path string) error {
	name, args := revealCommand(runtime.GOOS, path)
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("toast: %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func revealCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer", []string{"/select," + path}
	default:
		return "xdg-open", []string{filepath.Dir(path)}
	}
}
