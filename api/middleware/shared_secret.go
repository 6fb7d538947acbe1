package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/ventaflow/dispatch-backend/api/responses"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

const sharedSecretHeader = "X-Dispatch-Secret"

// SharedSecret guards operational endpoints with a static secret, accepted
// either in the X-Dispatch-Secret header or a `secret` query parameter.
// Comparison is constant time.
func SharedSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shared secret not configured"))
				return
			}

			provided := r.Header.Get(sharedSecretHeader)
			if provided == "" {
				provided = r.URL.Query().Get("secret")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid dispatch secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
