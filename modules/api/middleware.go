package api

import (
	"context"
	"strings"

	domain "github.com/example/taskboard/domain/user"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// TokenValidator verifies a bearer token and returns the identity it carries.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
}

// AuthMiddleware creates a middleware that validates JWT tokens.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, errResp := bearerToken(c)
		if errResp != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(*errResp)
		}

		claims, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		// Store claims in context for use in handlers
		c.Locals(UserContextKey, claims)

		return c.Next()
	}
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(c *fiber.Ctx) (string, *ErrorResponse) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", &ErrorResponse{
			Error:   "unauthorized",
			Message: "Authorization header is required",
		}
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", &ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid authorization header format. Use: Bearer <token>",
		}
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", &ErrorResponse{
			Error:   "unauthorized",
			Message: "Token is required",
		}
	}

	return token, nil
}

// currentClaims returns the identity stored by AuthMiddleware.
func currentClaims(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok
}
