package oauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/akqa/lms-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// CallbackPath is appended to the request origin to form the redirect URL.
// The provider rejects an exchange whose redirect URL differs from the one
// used to start the flow, so both sides must build it the same way.
const CallbackPath = "/auth/callback"

type GoogleProvider struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint

	// userInfoEndpoint overrides the Google API base path when set.
	userInfoEndpoint string
	httpClient       *http.Client
}

func NewGoogleProvider(cfg config.OAuthConfig) *GoogleProvider {
	return &GoogleProvider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		endpoint:     google.Endpoint,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) Configured() bool {
	return p.clientID != "" && p.clientSecret != ""
}

// CallbackURL returns the redirect URL registered for the given origin.
func CallbackURL(origin string) string {
	return strings.TrimRight(origin, "/") + CallbackPath
}

// oauthConfig builds a fresh client configuration per call; the redirect URL
// depends on the origin the request arrived on.
func (p *GoogleProvider) oauthConfig(redirectOrigin string) (*oauth2.Config, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  CallbackURL(redirectOrigin),
		Scopes:       []string{"profile", "email"},
		Endpoint:     p.endpoint,
	}, nil
}

func (p *GoogleProvider) ConsentURL(redirectOrigin, state string) (string, error) {
	cfg, err := p.oauthConfig(redirectOrigin)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, redirectOrigin, code string) (*Identity, error) {
	cfg, err := p.oauthConfig(redirectOrigin)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrMissingCode
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &ExchangeError{Op: "exchange code", Err: err}
	}

	opts := []option.ClientOption{option.WithHTTPClient(cfg.Client(ctx, token))}
	if p.userInfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.userInfoEndpoint))
	}

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, &ExchangeError{Op: "create userinfo client", Err: err}
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, &ExchangeError{Op: "get user info", Err: err}
	}

	if info.Id == "" || info.Email == "" {
		return nil, &ExchangeError{Op: "get user info", Err: fmt.Errorf("profile missing id or email")}
	}

	name := info.Name
	if name == "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}

	return &Identity{
		ExternalID: info.Id,
		Email:      info.Email,
		Name:       name,
		PictureURL: info.Picture,
		Provider:   "google",
	}, nil
}
