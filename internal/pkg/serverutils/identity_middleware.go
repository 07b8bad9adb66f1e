package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IdentityMiddleware resolves the caller from the X-User-Id header set by
// the gateway in front of this service. Identity is used for logging and
// session ownership, not authorization.
func IdentityMiddleware(ctx *fiber.Ctx) error {
	header := ctx.Get("X-User-Id")
	userId, err := uuid.Parse(header)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("missing or malformed X-User-Id header"))
	}

	ctx.Locals("user_id", userId.String())
	return ctx.Next()
}
