// Package auth issues and verifies identity tokens and hashes credentials.
package auth

import "go-ratings-backend/models"

// Role is the caller's role as carried in a token.
type Role string

const (
	RoleAdmin Role = models.RoleAdmin
	RoleUser  Role = models.RoleUser
	RoleOwner Role = models.RoleOwner
)

func (r Role) Valid() bool { return models.ValidRole(string(r)) }

// Identity is the {subject, role} pair a verified token resolves to.
// It lives for one request only.
type Identity struct {
	SubjectID uint
	Role      Role
}
