package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fastpay/fastpay-backend/internal/api/httpx"
	"github.com/fastpay/fastpay-backend/internal/auth"
)

type ctxKey string

const ctxMerchantIDKey ctxKey = "merchant_id"

// MerchantID returns the authenticated merchant id set by Auth.
func MerchantID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxMerchantIDKey).(string)
	return v, ok
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Auth requires a Bearer access token issued at merchant login.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, err := m.TM.ParseAccess(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxMerchantIDKey, claims.MerchantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
