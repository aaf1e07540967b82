package middleware

import (
	"net/http"
	"time"

	"github.com/akqa/lms-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	SessionCookieName = "auth-token"
	StateCookieName   = "oauth-state"

	SessionKey = "session"
	UserIDKey  = "user_id"

	stateCookieMaxAge = 10 * time.Minute
)

// CookieConfig carries the attributes shared by every cookie the service sets.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

type SessionVerifier interface {
	VerifySession(token string) (*dto.SessionUser, error)
}

func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func SetStateCookie(w http.ResponseWriter, cfg CookieConfig, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearStateCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadSession attaches the verified session, if any, to the context. It never
// rejects a request; a bad or missing cookie just means no session.
func LoadSession(verifier SessionVerifier) drift.HandlerFunc {
	return func(c *drift.Context) {
		cookie, err := c.Request.Cookie(SessionCookieName)
		if err == nil && cookie.Value != "" {
			if session, err := verifier.VerifySession(cookie.Value); err == nil {
				c.Set(SessionKey, session)
				c.Set(UserIDKey, session.ID)
			}
		}

		c.Next()
	}
}

func GetSessionUser(c *drift.Context) *dto.SessionUser {
	if v, ok := c.Get(SessionKey); ok {
		if session, ok := v.(*dto.SessionUser); ok {
			return session
		}
	}
	return nil
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}
