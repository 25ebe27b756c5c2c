package rest

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/logging"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/server"
)

// AuthGate validates the bearer credential on every inbound request
// against the one configured secret. It has no other state.
type AuthGate struct {
	secret string
	logger *logging.Logger
}

// NewAuthGate creates an auth gate for the given shared secret.
func NewAuthGate(secret string, logger *logging.Logger) *AuthGate {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthGate{secret: secret, logger: logger}
}

// Check classifies an Authorization header value. An absent header or a
// non-bearer scheme fails as a missing credential; a bearer token that
// is not exactly the configured secret fails as an invalid one.
func (g *AuthGate) Check(header string) error {
	if header == "" {
		return domain.ErrMissingCredential
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return domain.ErrMissingCredential
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) != 1 {
		return domain.ErrInvalidCredential
	}
	return nil
}

// Wrap applies the gate to every request before any routing happens.
// Only the liveness root is exempt.
func (g *AuthGate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		if err := g.Check(r.Header.Get("Authorization")); err != nil {
			g.logger.Warn("request rejected", logging.Fields{
				"path":   r.URL.Path,
				"reason": err.Error(),
			})
			server.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
