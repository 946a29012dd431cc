// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"chat-relay-be/internal/pkg/token"

	"github.com/gofiber/fiber/v2"
)

// NewJwtMiddleware guards REST routes with the injected verifier. The
// websocket upgrade path deliberately does NOT use this; identity is resolved
// there on the connect frame instead.
func NewJwtMiddleware(verifier *token.Verifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := token.StripBearer(ctx.Get("Authorization"))
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
		}

		principal, err := verifier.Verify(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}

		ctx.Locals("principal", principal)
		return ctx.Next()
	}
}
