package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parking-service/internal/domain"
)

// RequireRole ensures the principal holds one of the allowed roles. With no
// arguments any authenticated user passes.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireStaff ensures the principal is SECURITY or ADMIN.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleSecurity, domain.RoleAdmin)
}

// RequireAdmin ensures the principal is ADMIN.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
