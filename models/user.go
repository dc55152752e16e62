// user.go - Defines the User model for the database

package models // Declares the package name

import "time"

// Role values stored in users.role and carried in tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleOwner = "owner"
)

// ValidRole reports whether r is one of the closed set of roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleUser, RoleOwner:
		return true
	}
	return false
}

type User struct { // User struct represents a user in the database
	ID           uint    `gorm:"primaryKey"`                      // Unique user ID (primary key)
	Name         string  `gorm:"size:255;not null"`               // Display name
	Email        string  `gorm:"size:255;uniqueIndex;not null"`   // User's email (must be unique, cannot be null)
	PasswordHash string  `gorm:"not null"`                        // Hashed password, never serialized
	Address      *string `gorm:"type:text"`                       // Optional postal address
	Role         string  `gorm:"size:16;not null;default:'user'"` // admin | user | owner
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
