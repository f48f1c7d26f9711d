package domain

import "time"

// User is the canonical account record. PasswordHash never leaves the process:
// it is excluded from JSON and from the public view used by transport and events.
type User struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	DateOfBirth  time.Time     `json:"date_of_birth"`
	PasswordHash string        `json:"-"`
	Permissions  PermissionSet `json:"permissions"`
	Addresses    []Address     `json:"addresses,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Address is a postal address owned by a single user. All fields are required.
type Address struct {
	Country       string `json:"country"`
	City          string `json:"city"`
	StreetAddress string `json:"street_address"`
	PostCode      string `json:"post_code"`
}

// IsComplete reports whether every address field is populated.
func (a Address) IsComplete() bool {
	return a.Country != "" && a.City != "" && a.StreetAddress != "" && a.PostCode != ""
}

// DateLayout is the wire format for dates of birth.
const DateLayout = "2006-01-02"

// UserView is the public projection of a User, safe for API responses and
// event payloads.
type UserView struct {
	ID          int64         `json:"id"`
	Email       string        `json:"email"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	DateOfBirth string        `json:"date_of_birth"`
	Permissions PermissionSet `json:"permissions"`
	Addresses   []Address     `json:"addresses,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// View builds the public projection of the user.
func (u *User) View() UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DateOfBirth: u.DateOfBirth.Format(DateLayout),
		Permissions: u.Permissions,
		Addresses:   u.Addresses,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Principal is an authenticated identity resolved from a bearer token.
type Principal struct {
	Subject     string        `json:"subject"`
	Permissions PermissionSet `json:"permissions"`
}

// Can reports whether the principal holds the given permission.
func (p *Principal) Can(perm Permission) bool {
	return p != nil && p.Permissions.Has(perm)
}
