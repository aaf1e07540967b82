package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a user's application role. There is no hierarchy between roles;
// each protected route lists the exact roles it admits.
type Role string

const (
	RoleViewer       Role = "viewer"
	RoleContentAdmin Role = "contentAdmin"
	RoleAdmin        Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleViewer, RoleContentAdmin, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleContentAdmin, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PictureURL *string   `json:"picture_url,omitempty"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
