package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/accountly/backend/domain"
)

// PrincipalResolver turns a raw bearer token into an authenticated principal.
type PrincipalResolver interface {
	ResolvePrincipal(token string) (*domain.Principal, error)
}

const principalKey = "auth_principal"

const bearerPrefix = "Bearer "

// Authenticate resolves the principal from the Authorization header and
// stores it on the request. Any token failure short-circuits with 401 before
// business logic runs; no partial principal is ever installed.
func Authenticate(resolver PrincipalResolver, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := extractToken(ctx)
			if token == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			principal, err := resolver.ResolvePrincipal(token)
			if err != nil {
				logger.Warn("token rejected", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			ctx.SetUserValue(principalKey, principal)
			next(ctx)
		}
	}
}

// RequirePermission gates a handler on one capability of the authenticated
// principal. Composes after Authenticate.
func RequirePermission(perm domain.Permission) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			principal := PrincipalFromCtx(ctx)
			if principal == nil {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			if !principal.Can(perm) {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				return
			}
			next(ctx)
		}
	}
}

// PrincipalFromCtx returns the principal installed by Authenticate, or nil.
func PrincipalFromCtx(ctx *fasthttp.RequestCtx) *domain.Principal {
	principal, _ := ctx.UserValue(principalKey).(*domain.Principal)
	return principal
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}
	return header
}
