package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserResolver resolves the acting user for a request: a signed link
// token (Authorization: Bearer or ?token=) when present, otherwise the
// plain ?user_id= parameter the bot uses on its own calls.
func UserResolver(links *service.LinkService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if h := r.Header.Get("Authorization"); h != "" {
				parts := strings.SplitN(h, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					token = parts[1]
				}
			}

			var userID string
			if token != "" {
				resolved, err := links.ResolveToken(token)
				if err != nil {
					logger.Warn("link token rejected",
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
					)
					handleServiceError(w, err, logger)
					return
				}
				userID = resolved
			} else {
				userID = r.URL.Query().Get("user_id")
			}

			if userID == "" {
				writeError(w, http.StatusUnauthorized, "missing link token or user_id")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the resolved user id from context.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// BotKeyGuard rejects calls that lack the shared bot API key. Applied to
// the link-minting endpoint only the bot should reach.
func BotKeyGuard(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || r.Header.Get("X-Bot-Key") != apiKey {
				logger.Warn("bot key rejected", zap.String("remote_addr", r.RemoteAddr))
				writeError(w, http.StatusUnauthorized, "invalid bot key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
