package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/pkg/dto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "lms-api"

// ErrInvalidSession covers every reason a session token is rejected. Callers
// treat it as "no session" and never show it to the user.
var ErrInvalidSession = errors.New("invalid session")

// SessionIssuer signs and verifies session tokens.
type SessionIssuer interface {
	IssueSession(user *models.User) (string, time.Time, error)
	VerifySession(token string) (*dto.SessionUser, error)
}

type JWTService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

type Claims struct {
	UserID     uuid.UUID   `json:"user_id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	PictureURL string      `json:"picture_url,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secret string, maxAge time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (s *JWTService) MaxAge() time.Duration {
	return s.maxAge
}

func (s *JWTService) IssueSession(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.maxAge)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
		},
	}
	if user.PictureURL != nil {
		claims.PictureURL = *user.PictureURL
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

func (s *JWTService) VerifySession(tokenString string) (*dto.SessionUser, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.UserID == uuid.Nil || claims.Email == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", ErrInvalidSession)
	}

	return &dto.SessionUser{
		ID:         claims.UserID,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       claims.Role,
		PictureURL: claims.PictureURL,
	}, nil
}
