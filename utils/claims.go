package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Identity is what the JWT middleware knows about the caller. The core only
// records these strings; it never validates them.
type Identity struct {
	UserID     string
	Email      string
	FullName   string
	Role       string
	Department string
}

func CurrentUser(c *fiber.Ctx) Identity {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Identity{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}
	}

	get := func(key string) string {
		if v, ok := claims[key].(string); ok {
			return v
		}
		return ""
	}

	return Identity{
		UserID:     get("user_id"),
		Email:      get("email"),
		FullName:   get("full_name"),
		Role:       get("role"),
		Department: get("department"),
	}
}
