package upload

import (
	"context"
	"errors"
)

var (
	// ErrNetwork cobre falhas de transporte (conexão, timeout, leitura).
	ErrNetwork = errors.New("upload: falha de rede")
	// ErrEmptyBody indica resposta sem corpo.
	ErrEmptyBody = errors.New("upload: resposta sem corpo")
	// ErrNoLink indica resposta sem link compartilhável.
	ErrNoLink = errors.New("upload: link ausente na resposta")
	// ErrStatus indica status HTTP de erro sem link.
	ErrStatus = errors.New("upload: status inesperado")
	// ErrNotConfigured indica host de upload indisponível.
	ErrNotConfigured = errors.New("upload: host não configurado")
	// ErrReadFile indica falha ao ler o arquivo local.
	ErrReadFile = errors.New("upload: falha ao ler arquivo")
)

// Input descreve o arquivo enviado.
type Input struct {
	Path        string
	FileName    string
	ContentType string
}

// Output é o artefato remoto criado.
type Output struct {
	Link string
	ETag string
}

// Uploader envia um arquivo local para um host remoto.
type Uploader interface {
	Upload(ctx context.Context, input Input) (*Output, error)
}

// NoopUploader devolve erro indicando que não há host configurado.
type NoopUploader struct{}

// Upload sempre retorna ErrNotConfigured.
func (NoopUploader) Upload(ctx context.Context, input Input) (*Output, error) {
	return nil, ErrNotConfigured
}
