package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/security"
	"github.com/accountly/backend/pkg/clock"
	"github.com/accountly/backend/repository/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingNotifier) Notify(ctx context.Context, eventType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
	return nil
}

func (r *recordingNotifier) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

func newTestPipeline(t *testing.T, clk clock.Clock) (*UseCase, *recordingNotifier) {
	t.Helper()

	users := memory.NewUserRepository()
	hasher := security.NewBcryptHasher(4)

	hash, err := hasher.Hash("correct-horse-battery")
	require.NoError(t, err)

	_, err = users.Create(context.Background(), &domain.User{
		Email:        "jane@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		DateOfBirth:  time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		PasswordHash: hash,
		Permissions:  domain.PermissionSet{domain.PermReadSelf, domain.PermUpdateSelf},
	})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	codec := security.NewJWTCodec([]byte("test-secret"), "user-management-service", time.Hour, clk)
	return New(users, hasher, codec, notifier, nil), notifier
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	uc, notifier := newTestPipeline(t, clock.System{})

	token, err := uc.Login(context.Background(), "jane@example.com", "correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := uc.ResolvePrincipal(token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", principal.Subject)
	assert.True(t, principal.Can(domain.PermReadSelf))
	assert.False(t, principal.Can(domain.PermDeleteOtherUser))

	assert.Equal(t, []string{domain.EventLoginSucceeded}, notifier.recorded())
}

func TestLogin_EnumerationResistance(t *testing.T) {
	t.Parallel()

	uc, notifier := newTestPipeline(t, clock.System{})

	// Wrong password and unknown email must be indistinguishable to callers.
	_, wrongPassErr := uc.Login(context.Background(), "jane@example.com", "bad-password")
	_, unknownErr := uc.Login(context.Background(), "nobody@example.com", "bad-password")

	require.ErrorIs(t, wrongPassErr, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())

	assert.Equal(t, []string{domain.EventLoginFailed, domain.EventLoginFailed}, notifier.recorded())
}

func TestResolvePrincipal_ExpiredToken(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	uc, _ := newTestPipeline(t, clock.Fixed{Time: t0})

	token, err := uc.Login(context.Background(), "jane@example.com", "correct-horse-battery")
	require.NoError(t, err)

	expired, _ := newTestPipeline(t, clock.Fixed{Time: t0.Add(2 * time.Hour)})
	_, err = expired.ResolvePrincipal(token)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestResolvePrincipal_Garbage(t *testing.T) {
	t.Parallel()

	uc, _ := newTestPipeline(t, clock.System{})

	_, err := uc.ResolvePrincipal("not-a-token")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}
