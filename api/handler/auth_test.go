package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/security"
	"github.com/accountly/backend/pkg/clock"
	"github.com/accountly/backend/repository/memory"
	authUC "github.com/accountly/backend/usecase/auth"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	hasher := security.NewBcryptHasher(4)
	users := memory.NewUserRepository()

	hash, err := hasher.Hash("correct-horse-battery")
	require.NoError(t, err)
	_, err = users.Create(context.Background(), &domain.User{
		Email:        "jane@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		PasswordHash: hash,
		Permissions:  domain.PermissionSet{domain.PermReadSelf},
	})
	require.NoError(t, err)

	codec := security.NewJWTCodec([]byte("test-secret"), "test-issuer", time.Hour, clock.System{})
	uc := authUC.New(users, hasher, codec, nil, nil)
	return NewAuthHandler(uc, nil, nil)
}

func TestLogin_IssuesToken(t *testing.T) {
	h := newAuthHandler(t)

	ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/auth/login",
		`{"email": "jane@example.com", "password": "correct-horse-battery"}`)
	h.Login(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["token"].(string)
	assert.NotEmpty(t, token)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newAuthHandler(t)

	ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/auth/login",
		`{"email": "jane@example.com", "password": "wrong"}`)
	h.Login(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestLogin_UnknownEmailLooksTheSame(t *testing.T) {
	h := newAuthHandler(t)

	wrongPassword := jsonRequest(fasthttp.MethodPost, "/api/v1/auth/login",
		`{"email": "jane@example.com", "password": "wrong"}`)
	h.Login(wrongPassword)

	unknownEmail := jsonRequest(fasthttp.MethodPost, "/api/v1/auth/login",
		`{"email": "nobody@example.com", "password": "wrong"}`)
	h.Login(unknownEmail)

	assert.Equal(t, fasthttp.StatusUnauthorized, wrongPassword.Response.StatusCode())
	assert.Equal(t, fasthttp.StatusUnauthorized, unknownEmail.Response.StatusCode())
	assert.Equal(t, wrongPassword.Response.Body(), unknownEmail.Response.Body(),
		"responses must not reveal whether the account exists")
}

func TestLogin_MissingFields(t *testing.T) {
	h := newAuthHandler(t)

	ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/auth/login", `{"email": "jane@example.com"}`)
	h.Login(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}
