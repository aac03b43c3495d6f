package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

const tokenQueryParam = "token"

// newAuthMiddleware verifies the bearer JWT and rejects anything but access tokens.
func newAuthMiddleware(conf *core.Config) echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(jwtConfig(conf))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.TokenType != tokenTypeAccess {
				return errInvalidToken
			}
			return next(ctx)
		})
	}
}

// queryTokenMiddleware lets clients that cannot set headers (mobile WebSockets) pass the JWT as `?token=`.
func queryTokenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		if req.Header.Get(echo.HeaderAuthorization) == "" {
			if token := ctx.QueryParam(tokenQueryParam); token != "" {
				req.Header.Set(echo.HeaderAuthorization, middleware.DefaultJWTConfig.AuthScheme+" "+token)
			}
		}
		return next(ctx)
	}
}

// adminMiddleware requires the stored admin flag of the context user, so revocation applies immediately.
func adminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
