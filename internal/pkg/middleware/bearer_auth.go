package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelForum/app/models"
	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/internal/pkg/security"
	"github.com/ManuelReschke/PixelForum/internal/pkg/usercontext"
)

// BearerAuthMiddleware authenticates requests carrying an access token in the
// Authorization header. A missing token is rejected with 401, an invalid or
// expired one with 403. When users is set the token's user must still exist
// and be active.
func BearerAuthMiddleware(secret string, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing bearer token"})
		}

		claims, err := security.VerifyAccessToken(token, secret)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Invalid or expired token"})
		}

		userCtx := usercontext.UserContext{
			UserID:     claims.UserID,
			Username:   claims.Username,
			IsLoggedIn: true,
		}

		if users != nil {
			user, err := users.GetByID(claims.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Invalid or expired token"})
				}
				log.Printf("bearer auth: user lookup failed for %d: %v", claims.UserID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Token verification failed"})
			}
			if user.Status != models.STATUS_ACTIVE {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
			}
			userCtx.Username = user.Username
		}

		usercontext.SetUserContext(c, userCtx)
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
