package repository

import (
	"context"

	"github.com/accountly/backend/domain"
)

// UserRepository is the credential store contract. Implementations must
// enforce email uniqueness at the storage level: of two concurrent writes
// claiming the same email, exactly one succeeds and the other fails with
// domain.ErrEmailExists.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists a new record and returns it with the store-assigned id.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update overwrites an existing record. Last writer wins, but the email
	// uniqueness check is re-verified at write time.
	Update(ctx context.Context, user *domain.User) error
	// DeleteByID and DeleteByEmail are idempotent: deleting a missing record
	// is a no-op.
	DeleteByID(ctx context.Context, id int64) error
	DeleteByEmail(ctx context.Context, email string) error
	Page(ctx context.Context, spec domain.PageSpec) (*domain.UserPage, error)
}
