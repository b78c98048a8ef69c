package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/colchonesapp/api/validators"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
)

// CartSessionHeader names the till whose cart a request mutates.
const CartSessionHeader = "X-Cart-Session"

const maxSessionLen = 64

// CartSession resolves the cart session from the request header, minting a new
// one when absent, and echoes it back so the client can keep using it.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := validators.SanitizeString(r.Header.Get(CartSessionHeader), maxSessionLen)
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			w.Header().Set(CartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
