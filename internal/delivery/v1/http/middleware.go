package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

const tokenCookie = "token"

type identityCtxKey struct{}

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// identityFromCtx возвращает личность, сохранённую middleware аутентификации.
func identityFromCtx(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	return id, ok
}

// bearerToken берёт токен из заголовка Authorization, а при его отсутствии из cookie.
func bearerToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}

	return ""
}

// RequireIdentity пропускает запрос дальше только с проверенной личностью в контексте.
func RequireIdentity(verifier usecase.IdentityVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifier.Verify(r.Context(), bearerToken(r))
			if err != nil {
				log.Warnf("%d %s %s: %s", http.StatusUnauthorized, r.Method, r.URL.Path, err.Error())
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

func mustIdentity(r *http.Request) (domain.Identity, error) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		return domain.Identity{}, e.ErrAuthenticationRequired
	}

	return id, nil
}
