package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/accountly/backend/api/handler"
	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	User   *apiHandler.UserHandler
	Health *apiHandler.HealthHandler
}

// Middleware is the fasthttp handler wrapper shape shared by the
// authentication and permission gates.
type Middleware = func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, auth Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public routes: registration and credential login.
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/users", handlers.User.Register)

	// Directory routes, gated per capability.
	r.GET("/api/v1/users", guard(auth, domain.PermReadOtherUser, handlers.User.List))
	r.GET("/api/v1/users/{id}", guard(auth, domain.PermReadOtherUser, handlers.User.GetByID))
	r.PUT("/api/v1/users/{id}", guard(auth, domain.PermUpdateOtherUser, handlers.User.UpdateByID))
	r.DELETE("/api/v1/users/{id}", guard(auth, domain.PermDeleteOtherUser, handlers.User.DeleteByID))

	// Own-record routes.
	r.GET("/api/v1/profile", guard(auth, domain.PermReadSelf, handlers.User.GetSelf))
	r.PUT("/api/v1/profile", guard(auth, domain.PermUpdateSelf, handlers.User.UpdateSelf))
	r.DELETE("/api/v1/profile", guard(auth, domain.PermDeleteSelf, handlers.User.DeleteSelf))

	return r
}

func guard(auth Middleware, perm domain.Permission, handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return auth(middleware.RequirePermission(perm)(handler))
}
