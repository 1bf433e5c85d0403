package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account kinds
const (
	AccountLocal     = "local"
	AccountFederated = "federated"
)

// Identity providers for federated accounts
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Account says how a user proves their identity. Federated accounts have no
// local password and can only sign in through their provider.
type Account struct {
	Kind     string `bson:"kind" json:"kind"`
	Provider string `bson:"provider,omitempty" json:"provider,omitempty"`
	Subject  string `bson:"subject,omitempty" json:"-"` // provider's user id
}

// IsFederated reports whether the account is backed by an external identity provider.
func (a Account) IsFederated() bool {
	return a.Kind == AccountFederated
}

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"user_name" json:"name"`
	Email        string             `bson:"user_email" json:"email"`
	Password     string             `bson:"user_password,omitempty" json:"-"`
	Account      Account            `bson:"account" json:"account"`
	Role         string             `bson:"user_role" json:"role"` // "user" or "admin"
	IsVerified   bool               `bson:"is_email_verified" json:"is_email_verified"`
	RefreshToken string             `bson:"refresh_token,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Profile is the public view of a user.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Profile strips credentials from the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
