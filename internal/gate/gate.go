// Package gate holds the route to allowed-role table and the single function
// that evaluates a session against it.
package gate

import (
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/pkg/dto"
)

type Decision int

const (
	Allow Decision = iota
	RedirectToSignIn
	RedirectToUnauthorized
)

const (
	SignInPath       = "/"
	UnauthorizedPath = "/unauthorized"
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToSignIn:
		return "sign_in"
	case RedirectToUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Location is where the browser should be sent, or "" for Allow.
func (d Decision) Location() string {
	switch d {
	case RedirectToSignIn:
		return SignInPath
	case RedirectToUnauthorized:
		return UnauthorizedPath
	}
	return ""
}

// Rule admits exactly Roles to every path under Prefix. An empty Method
// matches any method.
type Rule struct {
	Method string
	Prefix string
	Roles  []models.Role
}

func (r Rule) matches(method, p string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	return p == r.Prefix || strings.HasPrefix(p, strings.TrimSuffix(r.Prefix, "/")+"/")
}

type Table struct {
	rules []Rule
}

func NewTable(rules ...Rule) *Table {
	return &Table{rules: rules}
}

var (
	allRoles   = []models.Role{models.RoleViewer, models.RoleContentAdmin, models.RoleAdmin}
	editors    = []models.Role{models.RoleContentAdmin, models.RoleAdmin}
	adminsOnly = []models.Role{models.RoleAdmin}
)

// DefaultTable is the route table for the LMS pages and API.
func DefaultTable() *Table {
	return NewTable(
		Rule{Prefix: "/dashboard", Roles: allRoles},
		Rule{Prefix: "/calendar", Roles: allRoles},
		Rule{Prefix: "/category", Roles: allRoles},
		Rule{Prefix: "/training", Roles: allRoles},
		Rule{Prefix: "/add-training", Roles: editors},
		Rule{Prefix: "/add-user", Roles: adminsOnly},

		Rule{Method: http.MethodGet, Prefix: "/api/categories", Roles: allRoles},
		Rule{Method: http.MethodGet, Prefix: "/api/trainings", Roles: allRoles},
		Rule{Prefix: "/api/trainings", Roles: editors},
		Rule{Prefix: "/api/users", Roles: adminsOnly},
	)
}

// Match returns the most specific rule for the request: the longest prefix
// wins, and a method-specific rule beats a method-agnostic one.
func (t *Table) Match(method, rawPath string) (Rule, bool) {
	if method == http.MethodHead {
		method = http.MethodGet
	}
	p := path.Clean("/" + rawPath)

	var (
		best  Rule
		found bool
	)
	for _, r := range t.rules {
		if !r.matches(method, p) {
			continue
		}
		if !found || len(r.Prefix) > len(best.Prefix) ||
			(len(r.Prefix) == len(best.Prefix) && best.Method == "" && r.Method != "") {
			best, found = r, true
		}
	}
	return best, found
}

// Evaluate decides whether session may reach method+path. Paths without a
// rule are public.
func (t *Table) Evaluate(session *dto.SessionUser, method, rawPath string) Decision {
	rule, ok := t.Match(method, rawPath)
	if !ok {
		return Allow
	}
	return Check(session, rule.Roles)
}

// Check applies an allowed-role set to a session. There is no role hierarchy.
func Check(session *dto.SessionUser, allowed []models.Role) Decision {
	if session == nil {
		return RedirectToSignIn
	}
	if !slices.Contains(allowed, session.Role) {
		return RedirectToUnauthorized
	}
	return Allow
}
