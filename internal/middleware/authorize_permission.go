package middleware

import (
	"coinease-backend/internal/constants"
	"coinease-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthorizePermission lets the request through only when the session role is
// listed for permission in constants.PermissionRoles. A permission missing
// from the table is a wiring bug and answers 500.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, ok := GetUser(c).(map[string]interface{})
		if !ok {
			return response.Unauthorized(c, "Sign in to continue")
		}
		logger := zerolog.Ctx(c.UserContext())
		role, _ := m["role"].(string)

		if len(constants.PermissionRoles[permission]) == 0 {
			logger.Error().Str("permission", permission).Str("path", c.Path()).Msg("Route guarded by an unmapped permission")
			return response.Error(c, "Admin permission is not configured", fiber.StatusInternalServerError, nil)
		}
		if role == "" || !constants.AllowedRole(permission, role) {
			userID, _ := m["user_id"].(string)
			logger.Warn().Str("user_id", userID).Str("role", role).Str("permission", permission).Msg("Admin action denied")
			return response.Error(c, "Staff access required", fiber.StatusForbidden, fiber.Map{"permission": permission})
		}
		return c.Next()
	}
}
