package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrNotConfigured = errors.New("oauth provider not configured")
	ErrMissingCode   = errors.New("missing authorization code")
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// ProviderDeniedError is returned when the callback carries an error parameter,
// either because the user declined consent or the provider aborted the flow.
type ProviderDeniedError struct {
	Code string
}

func (e *ProviderDeniedError) Error() string {
	return "provider denied authorization: " + e.Code
}

// ExchangeError wraps failures talking to the provider after the callback.
type ExchangeError struct {
	Op  string
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Identity is the verified profile returned by the provider for one login attempt.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
	PictureURL string
	Provider   string
}

type Provider interface {
	Name() string
	Configured() bool
	ConsentURL(redirectOrigin, state string) (string, error)
	ExchangeCode(ctx context.Context, redirectOrigin, code string) (*Identity, error)
}

// ParseCallback extracts the authorization code from callback query parameters.
// A provider error takes precedence over a code.
func ParseCallback(query url.Values) (string, error) {
	if providerErr := query.Get("error"); providerErr != "" {
		return "", &ProviderDeniedError{Code: providerErr}
	}

	code := query.Get("code")
	if code == "" {
		return "", ErrMissingCode
	}
	return code, nil
}

func VerifyState(expected, received string) error {
	if expected == "" || received == "" {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
