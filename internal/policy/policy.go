// Package policy decides whether a first-time identity may get an account
// and which role it starts with.
package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/akqa/lms-api/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrDomainNotAllowed = errors.New("email domain not allowed")

// Policy maps email domains to default roles. Emails in AdminEmails always
// start as admin, provided their domain is allowed.
type Policy struct {
	domains     map[string]models.Role
	adminEmails map[string]struct{}
}

// File is the YAML shape of a policy file.
type File struct {
	Domains     map[string]string `yaml:"domains"`
	AdminEmails []string          `yaml:"adminEmails"`
}

func New(domains map[string]models.Role, adminEmails []string) (*Policy, error) {
	p := &Policy{
		domains:     make(map[string]models.Role, len(domains)),
		adminEmails: make(map[string]struct{}, len(adminEmails)),
	}
	for domain, role := range domains {
		if !role.Valid() {
			return nil, fmt.Errorf("domain %q: invalid role %q", domain, role)
		}
		p.domains[normalize(domain)] = role
	}
	for _, email := range adminEmails {
		p.adminEmails[normalize(email)] = struct{}{}
	}
	return p, nil
}

// Default returns the built-in policy used when no policy file is configured.
func Default() *Policy {
	p, _ := New(
		map[string]models.Role{"akqa.com": models.RoleViewer},
		[]string{"bhuvesh.singla@akqa.com"},
	)
	return p
}

func Parse(data []byte) (*Policy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if len(f.Domains) == 0 {
		return nil, errors.New("policy has no allowed domains")
	}

	domains := make(map[string]models.Role, len(f.Domains))
	for domain, role := range f.Domains {
		r, err := models.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("domain %q: %w", domain, err)
		}
		domains[domain] = r
	}
	return New(domains, f.AdminEmails)
}

// Load reads a policy file, or returns Default when path is empty.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Decide returns the initial role for email, or ErrDomainNotAllowed.
func (p *Policy) Decide(email string) (models.Role, error) {
	email = normalize(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("%w: malformed email %q", ErrDomainNotAllowed, email)
	}
	domain := email[at+1:]

	role, ok := p.domains[domain]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrDomainNotAllowed, domain)
	}
	if _, admin := p.adminEmails[email]; admin {
		return models.RoleAdmin, nil
	}
	return role, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
