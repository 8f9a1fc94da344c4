package upload

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"
)

// signedHeaders é o conjunto fixo assinado em todo PUT de captura. Cache-Control
// fica de fora para o bucket poder reescrevê-lo.
const signedHeaders = "content-type;host;x-amz-content-sha256;x-amz-date"

// signer assina PUTs de objeto com AWS SigV4 para o serviço s3. A chave
// derivada vale por um dia UTC e é reaproveitada entre uploads.
type signer struct {
	accessKey string
	secretKey string
	region    string

	mu     sync.Mutex
	keyDay string
	dayKey []byte
}

func newSigner(accessKey, secretKey, region string) *signer {
	return &signer{accessKey: accessKey, secretKey: secretKey, region: region}
}

// sign grava x-amz-date e Authorization. A requisição não pode ter query string.
func (s *signer) sign(req *http.Request, payloadHash string, now time.Time) {
	now = now.UTC()
	amzDate := now.Format("20060102T150405Z")
	day := now.Format("20060102")

	req.Header.Set("x-amz-content-sha256", payloadHash)
	req.Header.Set("x-amz-date", amzDate)

	host := req.Host
	if host == "" {
		host = req.URL.Host
	}

	canonical := strings.Join([]string{
		req.Method,
		canonicalPath(req.URL.Path),
		"",
		"content-type:" + strings.TrimSpace(req.Header.Get("Content-Type")),
		"host:" + host,
		"x-amz-content-sha256:" + payloadHash,
		"x-amz-date:" + amzDate,
		"",
		signedHeaders,
		payloadHash,
	}, "\n")
	canonicalHash := sha256.Sum256([]byte(canonical))

	scope := day + "/" + s.region + "/s3/aws4_request"
	toSign := "AWS4-HMAC-SHA256\n" + amzDate + "\n" + scope + "\n" + hex.EncodeToString(canonicalHash[:])
	signature := hex.EncodeToString(hmacSum(s.keyFor(day), toSign))

	req.Header.Set("Authorization", "AWS4-HMAC-SHA256 Credential="+s.accessKey+"/"+scope+
		", SignedHeaders="+signedHeaders+", Signature="+signature)
}

func (s *signer) keyFor(day string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyDay != day {
		key := hmacSum([]byte("AWS4"+s.secretKey), day)
		key = hmacSum(key, s.region)
		key = hmacSum(key, "s3")
		s.dayKey = hmacSum(key, "aws4_request")
		s.keyDay = day
	}
	return s.dayKey
}

// canonicalPath codifica cada segmento uma única vez, como o S3 espera.
func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = awsEscape(seg)
	}
	out := strings.Join(segments, "/")
	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	return out
}

func awsEscape(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}
	return b.String()
}

func hmacSum(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
