package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/domain"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// RequireAuthenticated ensures a caller is signed in.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireTier ensures the caller's assigned role ranks at or above the
// minimum role in the ladder.
func RequireTier(minimum domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Role.AtLeast(minimum) {
			return apperrors.NewForbidden("insufficient role tier")
		}
		return c.Next()
	}
}

// RequireAdminTier restricts a route to leadership roles.
func RequireAdminTier() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Role.IsAdminTier() {
			return apperrors.NewForbidden("admin tier required")
		}
		return c.Next()
	}
}
