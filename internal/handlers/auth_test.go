package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akqa/lms-api/internal/gate"
	"github.com/akqa/lms-api/internal/metrics"
	"github.com/akqa/lms-api/internal/middleware"
	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/internal/oauth"
	"github.com/akqa/lms-api/internal/policy"
	"github.com/akqa/lms-api/internal/testutil"
	"github.com/akqa/lms-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authTest struct {
	provider *testutil.MockOAuthProvider
	users    *testutil.MockUserService
	sessions *testutil.MockSessionIssuer
	handler  *AuthHandler
	app      http.Handler
}

func setupAuthTest(t *testing.T) *authTest {
	t.Helper()
	at := &authTest{
		provider: new(testutil.MockOAuthProvider),
		users:    new(testutil.MockUserService),
		sessions: new(testutil.MockSessionIssuer),
	}
	at.handler = NewAuthHandler(
		at.provider,
		at.users,
		policy.Default(),
		at.sessions,
		gate.DefaultTable(),
		middleware.CookieConfig{Secure: true, MaxAge: 7 * 24 * time.Hour},
		"https://lms.example.com/",
		trustedProxies(t),
		metrics.Nop{},
	)

	app := drift.New()
	app.Use(middleware.LoadSession(testutil.TestJWTService()))
	app.Get("/auth/start", at.handler.Start)
	app.Get("/auth/callback", at.handler.Callback)
	app.Post("/auth/logout", at.handler.Logout)
	app.Get("/auth/session", at.handler.Session)
	app.Get("/auth/access", at.handler.Access)
	at.app = app
	return at
}

// trustedProxies trusts 10.0.0.0/8 only; httptest requests come from 192.0.2.1.
func trustedProxies(t *testing.T) *middleware.ProxyTrust {
	t.Helper()
	proxies, err := middleware.NewProxyTrust([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	return proxies
}

func (at *authTest) callback(query string, stateCookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+query, nil)
	if stateCookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.StateCookieName, Value: stateCookie})
	}
	rec := httptest.NewRecorder()
	at.app.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Start_NotConfigured(t *testing.T) {
	at := setupAuthTest(t)
	at.provider.On("Configured").Return(false)

	rec := testutil.NewHTTPTestClient(t, at.app).GET("/auth/start")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/?error=oauth_not_configured", rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec, middleware.StateCookieName))
	at.provider.AssertNotCalled(t, "ConsentURL", mock.Anything, mock.Anything)
}

func TestAuthHandler_Start_RedirectsToConsent(t *testing.T) {
	at := setupAuthTest(t)
	at.provider.On("Configured").Return(true)
	at.provider.On("ConsentURL", "http://example.com", mock.AnythingOfType("string")).
		Return("https://accounts.google.com/o/oauth2/auth?client_id=x", nil)

	rec := testutil.NewHTTPTestClient(t, at.app).GET("/auth/start")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?client_id=x", rec.Header().Get("Location"))

	state := findCookie(rec, middleware.StateCookieName)
	require.NotNil(t, state)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "/auth", state.Path)

	passed := at.provider.Calls[1].Arguments.String(1)
	assert.Equal(t, state.Value, passed)
}

func TestAuthHandler_Start_UsesForwardedOrigin(t *testing.T) {
	at := setupAuthTest(t)
	at.provider.On("Configured").Return(true)
	at.provider.On("ConsentURL", "https://lms.akqa.com", mock.Anything).Return("https://consent", nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/start", nil)
	req.RemoteAddr = "10.0.0.2:443"
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "lms.akqa.com, internal:8080")
	rec := httptest.NewRecorder()
	at.app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	at.provider.AssertExpectations(t)
}

func TestAuthHandler_Callback_IgnoresForwardedHostFromClient(t *testing.T) {
	at := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "evil.example.net")
	rec := httptest.NewRecorder()
	at.app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/?error=oauth_error", rec.Header().Get("Location"))
}

func TestAuthHandler_Callback_Success(t *testing.T) {
	at := setupAuthTest(t)
	identity := &oauth.Identity{Email: "jane.doe@akqa.com", Name: "Jane Doe", Provider: "google"}
	user := &models.User{ID: uuid.New(), Email: "jane.doe@akqa.com", Name: "Jane Doe", Role: models.RoleViewer}

	at.provider.On("ExchangeCode", mock.Anything, "http://example.com", "auth-code").Return(identity, nil)
	at.users.On("FindOrCreateFromIdentity", mock.Anything, identity, mock.Anything).Return(user, nil)
	at.sessions.On("IssueSession", user).Return("signed-token", time.Now().Add(time.Hour), nil)

	rec := at.callback("code=auth-code&state=s1", "s1")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/dashboard", rec.Header().Get("Location"))

	session := findCookie(rec, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, "signed-token", session.Value)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)
	assert.Equal(t, "/", session.Path)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, 7*24*60*60, session.MaxAge)

	state := findCookie(rec, middleware.StateCookieName)
	require.NotNil(t, state)
	assert.Empty(t, state.Value)

	at.provider.AssertExpectations(t)
	at.users.AssertExpectations(t)
	at.sessions.AssertExpectations(t)
}

func TestAuthHandler_Callback_Failures(t *testing.T) {
	testCases := []struct {
		name        string
		query       string
		stateCookie string
		setup       func(at *authTest)
		code        string
	}{
		{
			name:        "provider error",
			query:       "error=access_denied&state=s1",
			stateCookie: "s1",
			code:        ErrCodeOAuth,
		},
		{
			name:        "provider error wins over code",
			query:       "error=access_denied&code=abc&state=s1",
			stateCookie: "s1",
			code:        ErrCodeOAuth,
		},
		{
			name:        "missing code",
			query:       "state=s1",
			stateCookie: "s1",
			code:        ErrCodeNoCode,
		},
		{
			name:  "missing state cookie",
			query: "code=abc&state=s1",
			code:  ErrCodeAuthFailed,
		},
		{
			name:        "state mismatch",
			query:       "code=abc&state=forged",
			stateCookie: "s1",
			code:        ErrCodeAuthFailed,
		},
		{
			name:        "exchange fails",
			query:       "code=abc&state=s1",
			stateCookie: "s1",
			setup: func(at *authTest) {
				at.provider.On("ExchangeCode", mock.Anything, mock.Anything, "abc").
					Return(nil, &oauth.ExchangeError{Op: "exchange code", Err: errors.New("invalid_grant")})
			},
			code: ErrCodeAuthFailed,
		},
		{
			name:        "domain not allowed",
			query:       "code=abc&state=s1",
			stateCookie: "s1",
			setup: func(at *authTest) {
				identity := &oauth.Identity{Email: "someone@gmail.com"}
				at.provider.On("ExchangeCode", mock.Anything, mock.Anything, "abc").Return(identity, nil)
				at.users.On("FindOrCreateFromIdentity", mock.Anything, identity, mock.Anything).
					Return(nil, policy.ErrDomainNotAllowed)
			},
			code: ErrCodeUnauthorizedDomain,
		},
		{
			name:        "directory error",
			query:       "code=abc&state=s1",
			stateCookie: "s1",
			setup: func(at *authTest) {
				identity := &oauth.Identity{Email: "jane@akqa.com"}
				at.provider.On("ExchangeCode", mock.Anything, mock.Anything, "abc").Return(identity, nil)
				at.users.On("FindOrCreateFromIdentity", mock.Anything, identity, mock.Anything).
					Return(nil, errors.New("connection refused"))
			},
			code: ErrCodeAuthFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			at := setupAuthTest(t)
			if tc.setup != nil {
				tc.setup(at)
			}

			rec := at.callback(tc.query, tc.stateCookie)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "http://example.com/?error="+tc.code, rec.Header().Get("Location"))
			assert.Nil(t, findCookie(rec, middleware.SessionCookieName))
			at.sessions.AssertNotCalled(t, "IssueSession", mock.Anything)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	at := setupAuthTest(t)
	user := &models.User{ID: uuid.New(), Email: "jane@akqa.com", Name: "Jane", Role: models.RoleViewer}

	rec := testutil.NewHTTPTestClient(t, at.app).
		WithCookie(testutil.SessionCookie(t, user)).
		POST("/auth/logout", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://example.com/", rec.Header().Get("Location"))

	cookie := findCookie(rec, middleware.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthHandler_Session(t *testing.T) {
	at := setupAuthTest(t)
	user := &models.User{ID: uuid.New(), Email: "jane@akqa.com", Name: "Jane", Role: models.RoleContentAdmin}

	rec := testutil.NewHTTPTestClient(t, at.app).
		WithCookie(testutil.SessionCookie(t, user)).
		GET("/auth/session")

	testutil.AssertStatus(t, rec, http.StatusOK)
	var session dto.SessionUser
	testutil.ParseJSON(t, rec, &session)
	assert.Equal(t, user.ID, session.ID)
	assert.Equal(t, user.Email, session.Email)
	assert.Equal(t, models.RoleContentAdmin, session.Role)
}

func TestAuthHandler_Session_Anonymous(t *testing.T) {
	at := setupAuthTest(t)

	rec := testutil.NewHTTPTestClient(t, at.app).GET("/auth/session")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestAuthHandler_Session_GarbageCookie(t *testing.T) {
	at := setupAuthTest(t)

	rec := testutil.NewHTTPTestClient(t, at.app).
		WithCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "not-a-jwt"}).
		GET("/auth/session")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Access(t *testing.T) {
	viewer := &models.User{ID: uuid.New(), Email: "v@akqa.com", Name: "V", Role: models.RoleViewer}
	admin := &models.User{ID: uuid.New(), Email: "a@akqa.com", Name: "A", Role: models.RoleAdmin}

	testCases := []struct {
		name     string
		user     *models.User
		path     string
		decision string
		location string
	}{
		{"anonymous dashboard", nil, "/dashboard", "sign_in", "/"},
		{"viewer dashboard", viewer, "/dashboard", "allow", ""},
		{"viewer add-user", viewer, "/add-user", "unauthorized", "/unauthorized"},
		{"admin add-user", admin, "/add-user", "allow", ""},
		{"public path", nil, "/", "allow", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			at := setupAuthTest(t)
			client := testutil.NewHTTPTestClient(t, at.app)
			if tc.user != nil {
				client = client.WithCookie(testutil.SessionCookie(t, tc.user))
			}

			rec := client.GET("/auth/access?path=" + tc.path)

			testutil.AssertStatus(t, rec, http.StatusOK)
			var resp dto.AccessResponse
			testutil.ParseJSON(t, rec, &resp)
			assert.Equal(t, tc.path, resp.Path)
			assert.Equal(t, tc.decision, resp.Decision)
			assert.Equal(t, tc.location, resp.Location)
		})
	}
}

func TestAuthHandler_Access_InvalidPath(t *testing.T) {
	at := setupAuthTest(t)
	client := testutil.NewHTTPTestClient(t, at.app)

	assert.Equal(t, http.StatusBadRequest, client.GET("/auth/access").Code)
	assert.Equal(t, http.StatusBadRequest, client.GET("/auth/access?path=dashboard").Code)
}

func TestRequestOrigin(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{
			name:     "host header",
			setup:    func(r *http.Request) { r.Host = "localhost:3000" },
			expected: "http://localhost:3000",
		},
		{
			name: "forwarded headers from trusted proxy",
			setup: func(r *http.Request) {
				r.RemoteAddr = "10.0.0.9:1234"
				r.Header.Set("X-Forwarded-Proto", "https")
				r.Header.Set("X-Forwarded-Host", "lms.akqa.com")
			},
			expected: "https://lms.akqa.com",
		},
		{
			name: "forwarded headers from untrusted peer",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-Proto", "https")
				r.Header.Set("X-Forwarded-Host", "evil.example.net")
			},
			expected: "http://example.com",
		},
		{
			name: "bogus proto ignored",
			setup: func(r *http.Request) {
				r.RemoteAddr = "10.0.0.9:1234"
				r.Header.Set("X-Forwarded-Proto", "javascript")
			},
			expected: "http://example.com",
		},
		{
			name: "host with path separator",
			setup: func(r *http.Request) {
				r.RemoteAddr = "10.0.0.9:1234"
				r.Header.Set("X-Forwarded-Host", "evil.example.net/x")
			},
			expected: "https://fallback.example.com",
		},
		{
			name:     "fallback",
			setup:    func(r *http.Request) { r.Host = "" },
			expected: "https://fallback.example.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			assert.Equal(t, tc.expected, requestOrigin(req, trustedProxies(t), "https://fallback.example.com"))
		})
	}
}
