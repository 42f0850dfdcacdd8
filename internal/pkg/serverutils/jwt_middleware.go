package serverutils

import (
	"os"

	"github.com/ehcaw/documix/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware authenticates the bearer token and resolves the caller's
// scope key. Retrieval scoping comes from the validated claim, never from
// request parameters.
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(FailureResponse("Missing token"))
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(FailureResponse("Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(FailureResponse("Invalid claims"))
	}

	scopeClaim, _ := claims["scope"].(string)
	if scopeClaim == "" {
		scopeClaim, _ = claims["user_id"].(string)
	}
	scope := entity.ScopeKey(scopeClaim)
	if err := scope.Validate(); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(FailureResponse("Invalid scope claim"))
	}

	ctx.Locals("scope_key", scope)
	if userId, ok := claims["user_id"].(string); ok {
		ctx.Locals("user_id", userId)
	}
	return ctx.Next()
}

// ScopeFromLocals extracts the scope key the middleware stored on the request.
func ScopeFromLocals(ctx *fiber.Ctx) entity.ScopeKey {
	if scope, ok := ctx.Locals("scope_key").(entity.ScopeKey); ok {
		return scope
	}
	return ""
}
