package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ValidRole(r string) bool {
	return Role(r) == RoleAdmin || Role(r) == RoleUser
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	Role         Role          `bson:"role" json:"role"`
	IsActive     bool          `bson:"isActive" json:"active"`
	// Set on every password change after creation; tokens issued before it
	// are rejected.
	PasswordChangedAt *time.Time `bson:"passwordChangedAt,omitempty" json:"-"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Public is the projection returned on the wire and attached to the request
// context. The password hash never leaves the store layer.
func (u User) Public() map[string]any {
	return map[string]any{
		"id":       u.ID.Hex(),
		"name":     u.Name,
		"email":    u.Email,
		"role":     u.Role,
		"active":   u.IsActive,
	}
}

// Sanitized returns a copy safe to hand to downstream handlers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
