package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

// requireSession pulls the session id set by the session middleware. The error
// response has been written when ok is false.
func requireSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {

	sessionID, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		logger.Warn("Request without session")
		response.Error(w, errors.UnauthorizedError("Session required"))

		return "", false
	}

	return sessionID, true
}

type SessionEnder interface {
	End(sessionID string)
}

type CookieExpirer interface {
	Expire(w http.ResponseWriter)
}

type SessionHandler struct {
	checkout SessionEnder
	cookies  CookieExpirer
}

func NewSessionHandler(checkout SessionEnder, cookies CookieExpirer) *SessionHandler {
	return &SessionHandler{checkout: checkout, cookies: cookies}
}

// EndSession godoc
//
//	@Summary		End the shopper session
//	@Description	Drops the in-memory cart and checkout for the session and expires the session cookie. Saved cart contents expire on their own.
//	@Tags			Session
//	@Success		204
//	@Router			/session [delete]
func (h *SessionHandler) EndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sessionID, ok := requireSession(w, r, logger)
		if !ok {
			return
		}

		h.checkout.End(sessionID)
		h.cookies.Expire(w)

		logger.Info("Session ended")
		w.WriteHeader(http.StatusNoContent)
	}
}
