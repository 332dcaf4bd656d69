package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/elimuhq/elimu/core/user"
)

// roleMiddleware guards a route group for a single account type. The user is
// re-read from storage so a stale token cannot outlive a role change.
func roleMiddleware(svc user.Service, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			usr, err := svc.GetByEmail(ctx.Request().Context(), claims.Email)
			if err != nil {
				return errRoleCheckFailed
			}
			if usr.Role != role {
				return errForbidden
			}
			return next(ctx)
		}
	}
}
