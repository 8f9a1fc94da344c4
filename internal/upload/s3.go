package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// S3Config descreve parâmetros necessários para assinar requisições compatíveis com S3.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
	KeyPrefix    string
	HTTPClient   *http.Client
}

// S3Uploader envia capturas para um bucket S3/R2 usando assinatura SigV4.
type S3Uploader struct {
	cfg    S3Config
	client *http.Client
	signer *signer
	now    func() time.Time
}

// NewS3Uploader cria um uploader pronto para enviar arquivos a um endpoint S3/R2.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	return &S3Uploader{
		cfg:    cfg,
		client: client,
		signer: newSigner(cfg.AccessKey, cfg.SecretKey, cfg.Region),
		now:    time.Now,
	}, nil
}

// Upload envia o arquivo com uma chave única e devolve a URL pública.
func (u *S3Uploader) Upload(ctx context.Context, input Input) (*Output, error) {
	payload, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: arquivo vazio", ErrReadFile)
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objectKey(u.cfg.KeyPrefix, input.Path, u.now())
	endpoint := strings.TrimRight(u.cfg.Endpoint, "/")
	escapedKey := (&url.URL{Path: key}).EscapedPath()
	targetURL := fmt.Sprintf("%s/%s/%s", endpoint, u.cfg.Bucket, escapedKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, targetURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	payloadHash := sha256.Sum256(payload)
	payloadHex := hex.EncodeToString(payloadHash[:])

	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(payload))
	req.Header.Set("Cache-Control", "public, max-age=31536000, immutable")
	u.signer.sign(req, payloadHex, u.now())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w (%d): %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	etag := strings.Trim(resp.Header.Get("ETag"), "\"")

	publicURL := targetURL
	if strings.TrimSpace(u.cfg.PublicDomain) != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(u.cfg.PublicDomain, "/"), escapedKey)
	}

	return &Output{Link: publicURL, ETag: etag}, nil
}

// objectKey gera prefixo/AAAA/MM/<uuid>.<ext> preservando a extensão do arquivo.
func objectKey(prefix, filePath string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	name := uuid.NewString() + ext
	return strings.TrimLeft(path.Join(strings.Trim(prefix, "/"), now.UTC().Format("2006/01"), name), "/")
}

func (cfg S3Config) validate() error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("upload: endpoint do S3 ausente")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return errors.New("upload: região do S3 ausente")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return errors.New("upload: bucket do S3 ausente")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" {
		return errors.New("upload: access key ausente")
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return errors.New("upload: secret key ausente")
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return errors.New("upload: endpoint deve incluir protocolo http/https")
	}
	return nil
}
