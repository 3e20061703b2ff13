package middleware

import (
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"gstbill/internal/common"
	"gstbill/internal/models"
)

// RequireRole allows the request through only when the caller holds one of roles.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	action := "access this resource as " + strings.Join(names, " or ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := common.ActorFromContext(c.Request().Context())
			if !ok {
				return common.ErrUnauthenticated
			}
			if !slices.Contains(roles, actor.Role) {
				return &common.AuthorizationError{Action: action}
			}
			return next(c)
		}
	}
}
