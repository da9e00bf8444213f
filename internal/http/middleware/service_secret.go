package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// ServiceSecret guards the internal job endpoints with a shared-secret
// header. The scheduler proxy is the only intended caller. An unconfigured
// secret is a deployment fault, not an open door, so it answers 500.
func ServiceSecret(secret string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error("service secret not configured, rejecting internal call", "path", r.URL.Path)
				http.Error(w, "service secret not configured", http.StatusInternalServerError)
				return
			}
			got := r.Header.Get(gateway.SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warn("internal call rejected, bad service secret", "path", r.URL.Path, "remote_ip", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
