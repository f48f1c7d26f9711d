package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/accountly/backend/api/transport"
	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/middleware"
	"github.com/accountly/backend/pkg/httpcontext"
	userUC "github.com/accountly/backend/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new user
// @Tags users
// @Router /api/v1/users [post]
func (h *UserHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterUserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := parseDate(req.DateOfBirth)
		if err != nil {
			h.respondInvalid(ctx, "date_of_birth must use the yyyy-mm-dd format")
			return
		}
		dob = parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := h.uc.Create(stdCtx, userUC.CreateInput{
		Email:       req.Email,
		RawPassword: req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Addresses:   req.Addresses,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.CreatedResponse{ID: id})
}

// @Summary List users page by page
// @Tags users
// @Router /api/v1/users [get]
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	spec := &domain.PageSpec{
		Page: parseInt(string(ctx.QueryArgs().Peek("page")), 0),
		Size: parseInt(string(ctx.QueryArgs().Peek("size")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.List(stdCtx, spec)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}

// @Summary Fetch a user by id
// @Tags users
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetByID(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetByID(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user.View())
}

// @Summary Merge-update a user by id
// @Tags users
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateByID(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	in, ok := h.parseUpdate(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.UpdateByID(stdCtx, id, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user.View())
}

// @Summary Delete a user by id
// @Tags users
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteByID(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteByID(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Fetch the authenticated user's own record
// @Tags profile
// @Router /api/v1/profile [get]
func (h *UserHandler) GetSelf(ctx *fasthttp.RequestCtx) {
	subject, ok := h.subject(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetByEmail(stdCtx, subject)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user.View())
}

// @Summary Merge-update the authenticated user's own record
// @Tags profile
// @Router /api/v1/profile [put]
func (h *UserHandler) UpdateSelf(ctx *fasthttp.RequestCtx) {
	subject, ok := h.subject(ctx)
	if !ok {
		return
	}

	in, ok := h.parseUpdate(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.UpdateByEmail(stdCtx, subject, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user.View())
}

// @Summary Delete the authenticated user's own record
// @Tags profile
// @Router /api/v1/profile [delete]
func (h *UserHandler) DeleteSelf(ctx *fasthttp.RequestCtx) {
	subject, ok := h.subject(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteByEmail(stdCtx, subject); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

func (h *UserHandler) parseUpdate(ctx *fasthttp.RequestCtx) (userUC.UpdateInput, bool) {
	var req transport.UpdateUserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return userUC.UpdateInput{}, false
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := parseDate(req.DateOfBirth)
		if err != nil {
			h.respondInvalid(ctx, "date_of_birth must use the yyyy-mm-dd format")
			return userUC.UpdateInput{}, false
		}
		dob = parsed
	}

	return userUC.UpdateInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Addresses:   req.Addresses,
	}, true
}

func (h *UserHandler) pathID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondInvalid(ctx, "user id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *UserHandler) subject(ctx *fasthttp.RequestCtx) (string, bool) {
	principal := middleware.PrincipalFromCtx(ctx)
	if principal == nil || principal.Subject == "" {
		ctx.SetStatusCode(http.StatusUnauthorized)
		return "", false
	}
	return principal.Subject, true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(domain.DateLayout, raw)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
