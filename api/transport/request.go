package transport

import "github.com/accountly/backend/domain"

// RegisterUserRequest is the registration payload. DateOfBirth uses the
// yyyy-mm-dd wire format.
type RegisterUserRequest struct {
	Email       string           `json:"email"`
	Password    string           `json:"password"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	DateOfBirth string           `json:"date_of_birth"`
	Addresses   []domain.Address `json:"addresses,omitempty"`
}

// AuthenticateRequest is the credential login payload.
type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is a merge update: absent or empty fields stay unchanged.
type UpdateUserRequest struct {
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	DateOfBirth string           `json:"date_of_birth"`
	Addresses   []domain.Address `json:"addresses,omitempty"`
}
