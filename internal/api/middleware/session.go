package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookie = "storefront_session"
	SessionHeader = "X-Session-Token"
)

type sessionContextKey struct{}

// Session binds every request to an anonymous shopper session. The session id
// travels in a signed token, either as a cookie or as a Bearer header.
type Session struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSession(cfg config.Security, secureCookie bool) *Session {
	return &Session{
		key:    []byte(cfg.SessionKey),
		ttl:    cfg.SessionTTL,
		secure: secureCookie,
		now:    time.Now,
	}
}

// Issue signs a token for sessionID.
func (s *Session) Issue(sessionID string) (string, error) {

	now := s.now()
	claims := &models.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *Session) parse(tokenString string) (string, error) {

	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}

	return claims.SessionID, nil
}

func (s *Session) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		tokenString, fromHeader, err := tokenFromRequest(r)
		if err != nil {
			logger.Warn("Invalid authorization header format")
			response.Error(w, appErrors.UnauthorizedError("Invalid authorization format"))
			return
		}

		var sessionID string

		if tokenString != "" {
			sessionID, err = s.parse(tokenString)

			switch {
			case err == nil:
			case errors.Is(err, jwt.ErrTokenExpired) || !fromHeader:
				// stale cookie: start over with a fresh session
				logger.Info("Session token rejected, starting new session", slog.String("error", err.Error()))
				sessionID = ""
			default:
				logger.Warn("Session token parsing failed", slog.String("error", err.Error()))
				response.Error(w, appErrors.UnauthorizedError("Invalid or expired session"))
				return
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()

			token, err := s.Issue(sessionID)
			if err != nil {
				logger.Error("Failed to sign session token", slog.String("error", err.Error()))
				response.Error(w, appErrors.InternalError("Failed to start session").WithError(err))
				return
			}

			s.setCookie(w, token, s.now().Add(s.ttl))
			w.Header().Set(SessionHeader, token)

			logger.Info("Started new session", slog.String("sessionID", sessionID))
		}

		ctx := WithSession(r.Context(), sessionID)
		ctx = WithLogger(ctx, logger.With(slog.String("sessionID", sessionID)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Expire tells the client to drop its session cookie.
func (s *Session) Expire(w http.ResponseWriter) {
	s.setCookie(w, "", time.Unix(0, 0))
}

func (s *Session) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// tokenFromRequest prefers an Authorization header over the cookie.
func tokenFromRequest(r *http.Request) (string, bool, error) {

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", true, errors.New("malformed authorization header")
		}

		return parts[1], true, nil
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, false, nil
	}

	return "", false, nil
}

func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionID)
}

func SessionFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionContextKey{}).(string)

	return sessionID, ok && sessionID != ""
}
