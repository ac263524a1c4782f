package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// HeaderToken carries the user token in embedded experiences.
const HeaderToken = "x-whop-user-token"

// TokenFromRequest reads the user token header, falling back to an
// Authorization bearer token.
func TokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(HeaderToken)); t != "" {
		return t
	}
	const prefix = "bearer "
	if h := strings.TrimSpace(r.Header.Get("Authorization")); len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// Middleware attaches the caller's Identity to the request context. When
// required is false a missing or bad token falls back to
// AnonymousIdentity; otherwise the request is rejected with 401. A nil
// verifier treats every request as unverifiable.
func Middleware(v *Verifier, required bool, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifyRequest(v, r)
			if err != nil {
				if required {
					log.Info("rejecting unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
					writeUnauthorized(w)
					return
				}
				log.Debug("proceeding anonymously", zap.String("path", r.URL.Path), zap.Error(err))
				id = AnonymousIdentity
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func verifyRequest(v *Verifier, r *http.Request) (Identity, error) {
	if v == nil {
		return Identity{}, ErrNoToken
	}
	return v.Verify(r.Context(), TokenFromRequest(r))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Not authenticated in Whop embedded experience",
		"code":  "UNAUTHENTICATED",
	})
}
