package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akqa/lms-api/internal/gate"
	"github.com/akqa/lms-api/internal/metrics"
	"github.com/akqa/lms-api/internal/middleware"
	"github.com/akqa/lms-api/internal/oauth"
	"github.com/akqa/lms-api/internal/policy"
	"github.com/akqa/lms-api/internal/services"
	"github.com/akqa/lms-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// Error codes carried back to the sign-in page in ?error=.
const (
	ErrCodeNotConfigured      = "oauth_not_configured"
	ErrCodeOAuth              = "oauth_error"
	ErrCodeNoCode             = "no_code"
	ErrCodeUnauthorizedDomain = "unauthorized_domain"
	ErrCodeAuthFailed         = "auth_failed"
)

const (
	dashboardPath   = "/dashboard"
	exchangeTimeout = 30 * time.Second
)

type AuthHandler struct {
	provider oauth.Provider
	users    UserServiceInterface
	policy   services.RolePolicy
	sessions services.SessionIssuer
	table    *gate.Table
	cookies  middleware.CookieConfig
	appURL   string
	proxies  *middleware.ProxyTrust
	metrics  metrics.Recorder
}

func NewAuthHandler(
	provider oauth.Provider,
	users UserServiceInterface,
	rolePolicy services.RolePolicy,
	sessions services.SessionIssuer,
	table *gate.Table,
	cookies middleware.CookieConfig,
	appURL string,
	proxies *middleware.ProxyTrust,
	recorder metrics.Recorder,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		users:    users,
		policy:   rolePolicy,
		sessions: sessions,
		table:    table,
		cookies:  cookies,
		appURL:   strings.TrimRight(appURL, "/"),
		proxies:  proxies,
		metrics:  recorder,
	}
}

// Start sends the browser to the provider's consent screen.
func (h *AuthHandler) Start(c *drift.Context) {
	origin := h.origin(c.Request)

	if !h.provider.Configured() {
		h.failLogin(c, origin, ErrCodeNotConfigured, oauth.ErrNotConfigured)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		h.failLogin(c, origin, ErrCodeAuthFailed, err)
		return
	}

	consentURL, err := h.provider.ConsentURL(origin, state)
	if err != nil {
		code := ErrCodeAuthFailed
		if errors.Is(err, oauth.ErrNotConfigured) {
			code = ErrCodeNotConfigured
		}
		h.failLogin(c, origin, code, err)
		return
	}

	middleware.SetStateCookie(c.Response, h.cookies, state)
	redirect(c, consentURL)
}

// Callback completes the login: code exchange, directory upsert, session cookie.
func (h *AuthHandler) Callback(c *drift.Context) {
	origin := h.origin(c.Request)
	query := c.Request.URL.Query()

	code, err := oauth.ParseCallback(query)
	if err != nil {
		var denied *oauth.ProviderDeniedError
		if errors.As(err, &denied) {
			h.failLogin(c, origin, ErrCodeOAuth, err)
			return
		}
		h.failLogin(c, origin, ErrCodeNoCode, err)
		return
	}

	expected := ""
	if cookie, err := c.Request.Cookie(middleware.StateCookieName); err == nil {
		expected = cookie.Value
	}
	middleware.ClearStateCookie(c.Response, h.cookies)
	if err := oauth.VerifyState(expected, query.Get("state")); err != nil {
		h.failLogin(c, origin, ErrCodeAuthFailed, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
	defer cancel()

	identity, err := h.provider.ExchangeCode(ctx, origin, code)
	if err != nil {
		h.failLogin(c, origin, ErrCodeAuthFailed, err)
		return
	}

	user, err := h.users.FindOrCreateFromIdentity(ctx, identity, h.policy)
	if err != nil {
		if errors.Is(err, policy.ErrDomainNotAllowed) {
			h.failLogin(c, origin, ErrCodeUnauthorizedDomain, err)
			return
		}
		h.failLogin(c, origin, ErrCodeAuthFailed, err)
		return
	}

	token, _, err := h.sessions.IssueSession(user)
	if err != nil {
		h.failLogin(c, origin, ErrCodeAuthFailed, err)
		return
	}

	middleware.SetSessionCookie(c.Response, h.cookies, token)
	h.metrics.RecordLogin("success")
	h.metrics.RecordSessionIssued()
	slog.Info("user signed in",
		slog.String("user_id", user.ID.String()),
		slog.String("role", user.Role.String()),
	)

	redirect(c, origin+dashboardPath)
}

// Logout clears the session cookie. Served on both POST and GET.
func (h *AuthHandler) Logout(c *drift.Context) {
	middleware.ClearSessionCookie(c.Response, h.cookies)
	redirect(c, h.origin(c.Request)+gate.SignInPath)
}

// Session reports the current session, or 401 with a null body.
func (h *AuthHandler) Session(c *drift.Context) {
	session := middleware.GetSessionUser(c)
	if session == nil {
		_ = c.JSON(http.StatusUnauthorized, nil)
		return
	}
	_ = c.JSON(http.StatusOK, session)
}

// Access evaluates the gate for a page path so the client can redirect.
func (h *AuthHandler) Access(c *drift.Context) {
	path := c.QueryParam("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		c.BadRequest("path must be an absolute path")
		return
	}

	decision := h.table.Evaluate(middleware.GetSessionUser(c), http.MethodGet, path)
	h.metrics.RecordGateDecision(decision.String())

	_ = c.JSON(http.StatusOK, dto.AccessResponse{
		Path:     path,
		Decision: decision.String(),
		Location: decision.Location(),
	})
}

func (h *AuthHandler) failLogin(c *drift.Context, origin, code string, cause error) {
	h.metrics.RecordLogin(code)
	slog.Warn("login failed",
		slog.String("reason", code),
		slog.String("error", cause.Error()),
	)

	q := url.Values{}
	q.Set("error", code)
	redirect(c, origin+gate.SignInPath+"?"+q.Encode())
}

func redirect(c *drift.Context, location string) {
	http.Redirect(c.Response, c.Request, location, http.StatusFound)
	c.Abort()
}

func (h *AuthHandler) origin(r *http.Request) string {
	return requestOrigin(r, h.proxies, h.appURL)
}

// requestOrigin rebuilds scheme://host as the browser saw it and falls back
// to the configured public URL. Forwarding headers count only when the peer
// is a trusted proxy.
func requestOrigin(r *http.Request, proxies *middleware.ProxyTrust, fallback string) string {
	forwarded := proxies.TrustsPeer(r)

	host := ""
	if forwarded {
		host = firstHeaderValue(r.Header.Get("X-Forwarded-Host"))
	}
	if host == "" {
		host = r.Host
	}
	if host == "" || strings.ContainsAny(host, "/\\@") {
		return fallback
	}

	scheme := ""
	if forwarded {
		scheme = strings.ToLower(firstHeaderValue(r.Header.Get("X-Forwarded-Proto")))
	}
	if scheme != "http" && scheme != "https" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + host
}

func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}
