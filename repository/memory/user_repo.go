// Package memory provides a mutex-guarded in-memory user repository. It backs
// tests and local runs, and honors the same uniqueness contract as the
// Postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/repository"
)

type userRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() repository.UserRepository {
	return &userRepository{
		nextID: 1,
		users:  make(map[int64]*domain.User),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.findByEmail(email)
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Check and insert under one lock, mirroring the unique constraint.
	if r.findByEmail(user.Email) != nil {
		return nil, domain.ErrEmailExists
	}

	stored := cloneUser(user)
	stored.ID = r.nextID
	r.nextID++

	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[stored.ID] = stored

	return cloneUser(stored), nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if other := r.findByEmail(user.Email); other != nil && other.ID != user.ID {
		return domain.ErrEmailExists
	}

	stored := cloneUser(user)
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now()
	r.users[stored.ID] = stored
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *userRepository) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, id)
	return nil
}

func (r *userRepository) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user := r.findByEmail(email); user != nil {
		delete(r.users, user.ID)
	}
	return nil
}

func (r *userRepository) Page(ctx context.Context, spec domain.PageSpec) (*domain.UserPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	page := &domain.UserPage{
		Items: make([]domain.UserView, 0, spec.Size),
		Page:  spec.Page,
		Size:  spec.Size,
		Total: int64(len(ids)),
	}

	start := spec.Offset()
	for i := start; i < len(ids) && len(page.Items) < spec.Size; i++ {
		page.Items = append(page.Items, r.users[ids[i]].View())
	}
	return page, nil
}

func (r *userRepository) findByEmail(email string) *domain.User {
	for _, user := range r.users {
		if user.Email == email {
			return user
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.Permissions = append(domain.PermissionSet(nil), u.Permissions...)
	clone.Addresses = append([]domain.Address(nil), u.Addresses...)
	return &clone
}
