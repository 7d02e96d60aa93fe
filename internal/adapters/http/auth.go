package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

const (
	tokenHeader  = "x-access-token"
	userIDLocals = "user_id"
)

// AuthMiddleware requires an HS256 token in the x-access-token header and
// stores its user_id claim in the request locals.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(tokenHeader)
		if raw == "" {
			LoggerFromCtx(c.UserContext()).Warn("unauthorized request: token is missing", "path", c.Path())
			return errUnauthorized(c, "token is missing")
		}

		userID, err := verifyToken(raw, secret)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("unauthorized request: token is invalid", "path", c.Path(), "error", err)
			return errUnauthorized(c, "token is invalid")
		}

		c.Locals(userIDLocals, userID)
		withLogAttrs(c, "user_id", userID)
		return c.Next()
	}
}

func verifyToken(raw, secret string) (int64, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("unexpected claims type")
	}
	return userIDClaim(claims["user_id"])
}

func userIDClaim(v interface{}) (int64, error) {
	switch id := v.(type) {
	case float64:
		return int64(id), nil
	case string:
		return strconv.ParseInt(id, 10, 64)
	case nil:
		return 0, fmt.Errorf("user_id claim missing")
	default:
		return 0, fmt.Errorf("user_id claim has type %T", v)
	}
}

// SignToken issues a token carrying userID. Used by tooling and tests.
func SignToken(secret string, userID int64) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	}).SignedString([]byte(secret))
}

// userID returns the authenticated user, or 0 on unauthenticated routes.
func userID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDLocals).(int64)
	return id
}
