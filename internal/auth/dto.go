package auth

import (
	"github.com/farhanmajid/bazario-backend/internal/users"
)

// SignupInput carries a registration request. CompanyName, when present,
// creates a company owned by the new user in the same transaction.
type SignupInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
	FirstName            string
	LastName             string
	CompanyName          *string
}

// LoginInput carries a credential check request.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput pairs the expired access token with its refresh token.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}

// TokenPair is the issued credential set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult bundles tokens with the authenticated user's profile.
type AuthResult struct {
	Tokens TokenPair       `json:"tokens"`
	User   *users.UserView `json:"user"`
}
