package services

import (
	"context"
	"time"

	"github.com/akqa/lms-api/internal/models"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const roleCacheSize = 1024

// UserLookup is the part of the user directory RoleCache reads from.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RoleCache answers "what is this user's role right now" from the directory,
// holding each answer for at most ttl.
type RoleCache struct {
	users UserLookup
	cache *expirable.LRU[uuid.UUID, models.Role]
}

func NewRoleCache(users UserLookup, ttl time.Duration) *RoleCache {
	return &RoleCache{
		users: users,
		cache: expirable.NewLRU[uuid.UUID, models.Role](roleCacheSize, nil, ttl),
	}
}

func (c *RoleCache) CurrentRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	if role, ok := c.cache.Get(userID); ok {
		return role, nil
	}

	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	c.cache.Add(userID, user.Role)
	return user.Role, nil
}

// Invalidate drops the cached role so the next lookup reads the directory.
func (c *RoleCache) Invalidate(userID uuid.UUID) {
	c.cache.Remove(userID)
}
