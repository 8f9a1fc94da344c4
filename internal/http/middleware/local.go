package middleware

import (
	"net"
	"net/http"
)

// LocalOnly aceita apenas conexões de loopback. Rotas que recebem caminhos
// do sistema de arquivos local não fazem sentido para clientes remotos.
func LocalOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := net.ParseIP(remoteHost(r))
		if ip == nil || !ip.IsLoopback() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "rota disponível apenas localmente")
			return
		}
		next.ServeHTTP(w, r)
	})
}
