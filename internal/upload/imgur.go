package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/urbanbyte/ishare/internal/settings"
)

const (
	defaultImgurURL = "https://api.imgur.com/3/upload"
	maxResponseSize = 1 << 20
)

// ImgurUploader envia o arquivo como multipart para a API da Imgur.
type ImgurUploader struct {
	endpoint string
	settings settings.Reader
	client   *http.Client
}

// NewImgurUploader cria o uploader; o Client-ID é lido das preferências a cada envio.
func NewImgurUploader(endpoint string, reader settings.Reader, client *http.Client) *ImgurUploader {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultImgurURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ImgurUploader{endpoint: endpoint, settings: reader, client: client}
}

func (u *ImgurUploader) Upload(ctx context.Context, input Input) (*Output, error) {
	clientID := strings.TrimSpace(u.settings.String(settings.ImgurClientID))
	if clientID == "" {
		return nil, fmt.Errorf("%w: imgurClientId vazio", ErrNotConfigured)
	}

	body, contentType, err := multipartBody(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Client-ID "+clientID)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w (%d)", ErrEmptyBody, resp.StatusCode)
	}

	if link := gjson.GetBytes(raw, "data.link"); link.Type == gjson.String && link.Str != "" {
		return &Output{Link: link.Str}, nil
	}

	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(raw, "data.error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("%w (%d): %s", ErrStatus, resp.StatusCode, msg)
	}
	return nil, ErrNoLink
}

func multipartBody(input Input) (*bytes.Buffer, string, error) {
	f, err := os.Open(input.Path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, input.FileName))
	partHeader.Set("Content-Type", input.ContentType)

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
