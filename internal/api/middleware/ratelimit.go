package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

type SubmitLimiter interface {
	CheckSubmitRateLimit(ctx context.Context, sessionID string) (bool, int, int, error)
}

// SubmitRateLimit throttles checkout submissions per session. When the limiter
// is unreachable the request is let through.
func SubmitRateLimit(limiter SubmitLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		sessionID, ok := SessionFromContext(r.Context())
		if !ok {
			response.Error(w, appErrors.UnauthorizedError("No session"))
			return
		}

		allowed, remaining, retryAfter, err := limiter.CheckSubmitRateLimit(r.Context(), sessionID)
		if err != nil {
			logger.Error("Rate limit check failed, allowing request", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, appErrors.TooManyRequestsError("Too many checkout attempts, please wait"))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}
