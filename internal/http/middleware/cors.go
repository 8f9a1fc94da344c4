package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// originRule casa esquema e host exatos; porta "*" aceita qualquer porta,
// o que cobre servidores de desenvolvimento do painel em portas variáveis.
type originRule struct {
	scheme string
	host   string
	port   string
}

func parseOriginRule(entry string) (originRule, bool) {
	anyPort := strings.HasSuffix(entry, ":*")
	if anyPort {
		entry = strings.TrimSuffix(entry, ":*")
	}
	u, err := url.Parse(entry)
	if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return originRule{}, false
	}
	rule := originRule{scheme: strings.ToLower(u.Scheme), host: strings.ToLower(u.Hostname()), port: u.Port()}
	if anyPort {
		rule.port = "*"
	}
	return rule, true
}

func (o originRule) matches(u *url.URL) bool {
	if strings.ToLower(u.Scheme) != o.scheme || strings.ToLower(u.Hostname()) != o.host {
		return false
	}
	return o.port == "*" || u.Port() == o.port
}

// CORS libera o painel local e extensões listados em ALLOW_ORIGINS, por
// exemplo http://localhost:5173 ou http://127.0.0.1:*. Entradas inválidas
// são ignoradas.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	var rules []originRule
	for _, entry := range allowedOrigins {
		if rule, ok := parseOriginRule(strings.TrimSpace(entry)); ok {
			rules = append(rules, rule)
		}
	}

	allowed := func(origin string) bool {
		if origin == "" || len(rules) == 0 {
			return false
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, rule := range rules {
			if rule.matches(u) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")
			if allowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Expose-Headers", "Retry-After, Content-Disposition")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
