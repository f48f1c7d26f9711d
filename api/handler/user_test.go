package handler

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/accountly/backend/api/transport"
	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/security"
	"github.com/accountly/backend/pkg/clock"
	"github.com/accountly/backend/repository/memory"
	userUC "github.com/accountly/backend/usecase/user"
)

func newUserHandler(t *testing.T) *UserHandler {
	t.Helper()
	uc := userUC.New(
		memory.NewUserRepository(),
		security.NewBcryptHasher(4),
		nil,
		clock.System{},
		userUC.Policy{},
		nil,
	)
	return NewUserHandler(uc, nil, nil)
}

func jsonRequest(method, uri string, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

const registerBody = `{
	"email": "jane@example.com",
	"password": "hunter2hunter2",
	"first_name": "Jane",
	"last_name": "Doe",
	"date_of_birth": "1990-04-01",
	"addresses": [{"country": "DE", "city": "Berlin", "street_address": "Unter den Linden 1", "post_code": "10117"}]
}`

func TestRegister_Created(t *testing.T) {
	h := newUserHandler(t)

	ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/users", registerBody)
	h.Register(ctx)

	assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, "success", env.Status)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["id"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newUserHandler(t)

	first := jsonRequest(fasthttp.MethodPost, "/api/v1/users", registerBody)
	h.Register(first)
	require.Equal(t, fasthttp.StatusCreated, first.Response.StatusCode())

	second := jsonRequest(fasthttp.MethodPost, "/api/v1/users", registerBody)
	h.Register(second)

	assert.Equal(t, fasthttp.StatusConflict, second.Response.StatusCode())
	env := decodeEnvelope(t, second)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, string(domain.ErrCodeConflict), env.Code)
}

func TestRegister_BadDate(t *testing.T) {
	h := newUserHandler(t)

	ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/users", `{
		"email": "jane@example.com",
		"password": "hunter2hunter2",
		"first_name": "Jane",
		"last_name": "Doe",
		"date_of_birth": "01/04/1990"
	}`)
	h.Register(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestRegister_InvalidJSON(t *testing.T) {
	h := newUserHandler(t)

	ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/users", "{not json")
	h.Register(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestGetByID_NotFound(t *testing.T) {
	h := newUserHandler(t)

	ctx := jsonRequest(fasthttp.MethodGet, "/api/v1/users/42", "")
	ctx.SetUserValue("id", "42")
	h.GetByID(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestGetByID_BadID(t *testing.T) {
	h := newUserHandler(t)

	ctx := jsonRequest(fasthttp.MethodGet, "/api/v1/users/abc", "")
	ctx.SetUserValue("id", "abc")
	h.GetByID(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestUpdateByID_MergesFields(t *testing.T) {
	h := newUserHandler(t)

	create := jsonRequest(fasthttp.MethodPost, "/api/v1/users", registerBody)
	h.Register(create)
	require.Equal(t, fasthttp.StatusCreated, create.Response.StatusCode())

	update := jsonRequest(fasthttp.MethodPut, "/api/v1/users/1", `{"first_name": "Janet"}`)
	update.SetUserValue("id", "1")
	h.UpdateByID(update)

	require.Equal(t, fasthttp.StatusOK, update.Response.StatusCode())
	env := decodeEnvelope(t, update)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Janet", data["first_name"])
	assert.Equal(t, "Doe", data["last_name"], "unset fields keep their values")
	assert.Equal(t, "jane@example.com", data["email"])
}

func TestDeleteByID_Idempotent(t *testing.T) {
	h := newUserHandler(t)

	create := jsonRequest(fasthttp.MethodPost, "/api/v1/users", registerBody)
	h.Register(create)
	require.Equal(t, fasthttp.StatusCreated, create.Response.StatusCode())

	for i := 0; i < 2; i++ {
		del := jsonRequest(fasthttp.MethodDelete, "/api/v1/users/1", "")
		del.SetUserValue("id", "1")
		h.DeleteByID(del)
		assert.Equal(t, fasthttp.StatusOK, del.Response.StatusCode())
	}
}

func TestList_Paginates(t *testing.T) {
	h := newUserHandler(t)

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{
			"email": "user%d@example.com",
			"password": "hunter2hunter2",
			"first_name": "User",
			"last_name": "Number%d",
			"date_of_birth": "1990-04-01"
		}`, i, i)
		ctx := jsonRequest(fasthttp.MethodPost, "/api/v1/users", body)
		h.Register(ctx)
		require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	}

	list := jsonRequest(fasthttp.MethodGet, "/api/v1/users?page=1&size=2", "")
	h.List(list)

	require.Equal(t, fasthttp.StatusOK, list.Response.StatusCode())
	env := decodeEnvelope(t, list)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, data["total"])

	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1, "second page of size 2 holds the remainder")
}

func TestProfile_RoundTrip(t *testing.T) {
	h := newUserHandler(t)

	create := jsonRequest(fasthttp.MethodPost, "/api/v1/users", registerBody)
	h.Register(create)
	require.Equal(t, fasthttp.StatusCreated, create.Response.StatusCode())

	principal := &domain.Principal{
		Subject:     "jane@example.com",
		Permissions: domain.PermissionSet{domain.PermReadSelf, domain.PermDeleteSelf},
	}

	get := jsonRequest(fasthttp.MethodGet, "/api/v1/profile", "")
	get.SetUserValue("auth_principal", principal)
	h.GetSelf(get)

	require.Equal(t, fasthttp.StatusOK, get.Response.StatusCode())
	env := decodeEnvelope(t, get)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", data["email"])
	_, leaked := data["password_hash"]
	assert.False(t, leaked, "password hash never leaves the service")

	del := jsonRequest(fasthttp.MethodDelete, "/api/v1/profile", "")
	del.SetUserValue("auth_principal", principal)
	h.DeleteSelf(del)
	assert.Equal(t, fasthttp.StatusOK, del.Response.StatusCode())

	gone := jsonRequest(fasthttp.MethodGet, "/api/v1/profile", "")
	gone.SetUserValue("auth_principal", principal)
	h.GetSelf(gone)
	assert.Equal(t, fasthttp.StatusNotFound, gone.Response.StatusCode())
}
