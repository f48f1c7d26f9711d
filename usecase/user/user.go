// Package user implements the user directory: registration, lookups,
// merge-style partial updates, deletion and paginated listing.
package user

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/security"
	"github.com/accountly/backend/pkg/clock"
	"github.com/accountly/backend/repository"
	"github.com/accountly/backend/usecase"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 32

	defaultPageSize = 50
	maxPageSize     = 200
)

// Policy captures the registration rules that vary between deployments.
type Policy struct {
	// DefaultPermissions is the capability set granted at registration.
	DefaultPermissions domain.PermissionSet
	// RequireAddresses rejects registrations without at least one address.
	RequireAddresses bool
}

// UseCase is the user directory service.
type UseCase struct {
	users    repository.UserRepository
	hasher   security.PasswordHasher
	notifier usecase.EventNotifier
	clock    clock.Clock
	policy   Policy
	logger   *zap.Logger
}

// New wires the user directory. All collaborators are injected; notifier may
// be nil when the deployment runs without the event channel.
func New(
	users repository.UserRepository,
	hasher security.PasswordHasher,
	notifier usecase.EventNotifier,
	clk clock.Clock,
	policy Policy,
	logger *zap.Logger,
) *UseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(policy.DefaultPermissions) == 0 {
		policy.DefaultPermissions = domain.PermissionSet{
			domain.PermReadSelf,
			domain.PermUpdateSelf,
			domain.PermDeleteSelf,
			domain.PermReadOtherUser,
		}
	}
	return &UseCase{
		users:    users,
		hasher:   hasher,
		notifier: notifier,
		clock:    clk,
		policy:   policy,
		logger:   logger,
	}
}

// CreateInput carries the registration fields.
type CreateInput struct {
	Email       string
	RawPassword string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Addresses   []domain.Address
}

// Create registers a new user and returns the store-assigned id.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (int64, error) {
	if err := uc.validateCreate(in); err != nil {
		return 0, err
	}

	// Check-then-write: the store's unique constraint settles the race when
	// two concurrent registrations pass this check with the same email.
	if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
		return 0, domain.ErrEmailExists
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return 0, err
	}

	hash, err := uc.hasher.Hash(in.RawPassword)
	if err != nil {
		return 0, err
	}

	user := &domain.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DateOfBirth:  in.DateOfBirth,
		PasswordHash: hash,
		Permissions:  append(domain.PermissionSet(nil), uc.policy.DefaultPermissions...),
		Addresses:    in.Addresses,
	}

	created, err := uc.users.Create(ctx, user)
	if err != nil {
		return 0, err
	}

	uc.notify(ctx, domain.EventUserCreated, created.View())
	return created.ID, nil
}

// GetByID returns the user with the given id.
func (uc *UseCase) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return uc.users.GetByID(ctx, id)
}

// GetByEmail returns the user with the given email.
func (uc *UseCase) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.users.GetByEmail(ctx, email)
}

// UpdateInput carries the optional fields of a merge update. Zero values mean
// "leave unchanged".
type UpdateInput struct {
	Email       string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Addresses   []domain.Address
}

// UpdateByID merge-updates the user with the given id.
func (uc *UseCase) UpdateByID(ctx context.Context, id int64, in UpdateInput) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.update(ctx, user, in)
}

// UpdateByEmail merge-updates the user currently holding the given email.
func (uc *UseCase) UpdateByEmail(ctx context.Context, email string, in UpdateInput) (*domain.User, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return uc.update(ctx, user, in)
}

// update applies the merge policy: a field is overwritten only when supplied
// and different from the stored value. Validation happens before the single
// store write, so a failed update leaves the record untouched.
func (uc *UseCase) update(ctx context.Context, user *domain.User, in UpdateInput) (*domain.User, error) {
	if in.Email != "" && in.Email != user.Email {
		// The new email must be unused; the store re-verifies on write.
		if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
			return nil, domain.ErrEmailExists
		} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, err
		}
		user.Email = in.Email
	}

	if in.FirstName != "" && in.FirstName != user.FirstName {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" && in.LastName != user.LastName {
		user.LastName = in.LastName
	}

	if !in.DateOfBirth.IsZero() && !in.DateOfBirth.Equal(user.DateOfBirth) {
		if in.DateOfBirth.After(uc.clock.Now()) {
			return nil, domain.ErrFutureDateOfBirth
		}
		user.DateOfBirth = in.DateOfBirth
	}

	if len(in.Addresses) > 0 {
		for _, addr := range in.Addresses {
			if !addr.IsComplete() {
				return nil, domain.ErrIncompleteAddress
			}
		}
		user.Addresses = in.Addresses
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}

	uc.notify(ctx, domain.EventUserUpdated, user.View())
	return user, nil
}

// DeleteByID removes the user with the given id. Deleting a missing id is a
// no-op.
func (uc *UseCase) DeleteByID(ctx context.Context, id int64) error {
	if err := uc.users.DeleteByID(ctx, id); err != nil {
		return err
	}
	uc.notify(ctx, domain.EventUserDeleted, map[string]any{"id": id})
	return nil
}

// DeleteByEmail removes the user with the given email. Deleting a missing
// email is a no-op.
func (uc *UseCase) DeleteByEmail(ctx context.Context, email string) error {
	if err := uc.users.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	uc.notify(ctx, domain.EventUserDeleted, map[string]any{"email": email})
	return nil
}

// List returns one page of users. The page spec is mandatory.
func (uc *UseCase) List(ctx context.Context, spec *domain.PageSpec) (*domain.UserPage, error) {
	if spec == nil {
		return nil, domain.ErrPageSpecRequired
	}

	normalized := *spec
	if normalized.Page < 0 {
		normalized.Page = 0
	}
	if normalized.Size <= 0 {
		normalized.Size = defaultPageSize
	}
	if normalized.Size > maxPageSize {
		normalized.Size = maxPageSize
	}

	return uc.users.Page(ctx, normalized)
}

func (uc *UseCase) validateCreate(in CreateInput) error {
	switch {
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return domain.NewError(domain.ErrCodeInvalid, "a valid email is required")
	case in.FirstName == "":
		return domain.NewError(domain.ErrCodeInvalid, "first name is required")
	case in.LastName == "":
		return domain.NewError(domain.ErrCodeInvalid, "last name is required")
	case len(in.RawPassword) < minPasswordLength || len(in.RawPassword) > maxPasswordLength:
		return domain.NewError(domain.ErrCodeInvalid, "password must be between 8 and 32 characters")
	case in.DateOfBirth.IsZero():
		return domain.NewError(domain.ErrCodeInvalid, "date of birth is required")
	case in.DateOfBirth.After(uc.clock.Now()):
		return domain.ErrFutureDateOfBirth
	}

	if uc.policy.RequireAddresses && len(in.Addresses) == 0 {
		return domain.ErrAddressesRequired
	}
	for _, addr := range in.Addresses {
		if !addr.IsComplete() {
			return domain.ErrIncompleteAddress
		}
	}
	return nil
}

// notify publishes fire-and-forget; failures are logged and swallowed.
func (uc *UseCase) notify(ctx context.Context, eventType string, payload any) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, eventType, payload); err != nil {
		uc.logger.Warn("event notification failed",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
