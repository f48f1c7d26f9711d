// Package auth implements the authentication pipeline: credential login that
// mints bearer tokens, and principal resolution from presented tokens.
package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/security"
	"github.com/accountly/backend/repository"
	"github.com/accountly/backend/usecase"
)

// UseCase turns credentials or bearer tokens into authenticated principals.
type UseCase struct {
	users    repository.UserRepository
	hasher   security.PasswordHasher
	tokens   security.TokenCodec
	notifier usecase.EventNotifier
	logger   *zap.Logger
}

// New wires the authentication pipeline.
func New(
	users repository.UserRepository,
	hasher security.PasswordHasher,
	tokens security.TokenCodec,
	notifier usecase.EventNotifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

// Login verifies the credentials and returns a signed bearer token embedding
// the user's current permission set. An unknown email and a wrong password
// both fail with domain.ErrInvalidCredentials so responses cannot be used to
// enumerate accounts.
func (uc *UseCase) Login(ctx context.Context, email, rawPassword string) (string, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.notifyLogin(ctx, domain.EventLoginFailed, email)
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !uc.hasher.Verify(rawPassword, user.PasswordHash) {
		uc.notifyLogin(ctx, domain.EventLoginFailed, email)
		return "", domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.Email, user.Permissions)
	if err != nil {
		return "", err
	}

	uc.notifyLogin(ctx, domain.EventLoginSucceeded, user.Email)
	return token, nil
}

// ResolvePrincipal validates the token and returns the embedded principal.
// The permission snapshot inside the token is trusted as-is; a permission
// change takes effect when the user next logs in.
func (uc *UseCase) ResolvePrincipal(token string) (*domain.Principal, error) {
	return uc.tokens.Verify(token)
}

func (uc *UseCase) notifyLogin(ctx context.Context, eventType, email string) {
	if uc.notifier == nil {
		return
	}
	payload := map[string]any{"email": email}
	if err := uc.notifier.Notify(ctx, eventType, payload); err != nil {
		uc.logger.Warn("event notification failed",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
