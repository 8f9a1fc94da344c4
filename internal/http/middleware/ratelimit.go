package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle guarda um token bucket por cliente (IP de conexão ou subject do JWT).
// Buckets ociosos por mais de idle saem na próxima varredura.
type Throttle struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle cria o limitador com a taxa por segundo e a rajada informadas.
func NewThrottle(perSecond float64, burst int) *Throttle {
	return &Throttle{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// reserve consome um token de key e devolve quanto o cliente precisa esperar.
// Espera zero significa liberado.
func (t *Throttle) reserve(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= t.idle {
		for k, b := range t.buckets {
			if now.Sub(b.lastSeen) > t.idle {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return t.idle
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		// o token só é devolvido se o cliente não for atendido agora
		res.CancelAt(now)
	}
	return delay
}

func (t *Throttle) handler(next http.Handler, keyOf func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyOf(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if wait := t.reserve(key); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "muitas requisições; tente novamente mais tarde")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ByRemoteIP limita pelo endereço da conexão. Cabeçalhos como X-Forwarded-For
// são ignorados: o daemon atende direto, sem proxy na frente.
func ByRemoteIP(t *Throttle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return t.handler(next, remoteHost)
	}
}

// BySubject limita pelo subject autenticado; requisição sem subject passa.
func BySubject(t *Throttle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return t.handler(next, func(r *http.Request) string {
			return GetSubject(r.Context())
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
