package postgres

import (
	"encoding/json"

	"github.com/accountly/backend/domain"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user      domain.User
		perms     []string
		addresses []byte
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.DateOfBirth,
		&user.PasswordHash,
		&perms,
		&addresses,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.Permissions = domain.ParsePermissions(perms)
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &user.Addresses); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func marshalAddresses(addresses []domain.Address) ([]byte, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	return json.Marshal(addresses)
}
