package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skillopus-api/internal/models"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

// RequireRole admits authenticated requests whose token role is one of roles.
// AuthRoleStaff stands for both admins and instructors.
// Unknown role names panic at registration so a typo cannot open or close a route silently.
func RequireRole(roles ...string) fiber.Handler {
	allowed := allowedRoles(roles)

	return func(c *fiber.Ctx) error {
		if c.Locals(LocalUserID) == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if !roleAllowed(allowed, c.Locals(LocalUserRole)) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func allowedRoles(roles []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles)+1)
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		switch {
		case normalized == AuthRoleStaff:
			allowed[models.RoleAdmin] = struct{}{}
			allowed[models.RoleInstructor] = struct{}{}
		case models.IsValidRole(normalized):
			allowed[normalized] = struct{}{}
		default:
			panic(fmt.Sprintf("middleware: unknown role %q", role))
		}
	}
	return allowed
}

func roleAllowed(allowed map[string]struct{}, value interface{}) bool {
	_, ok := allowed[normalizeRoleValue(value)]
	return ok
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return ""
	}
}
