package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/learning-gap-api/internal/utils"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
	localUserName = "user_name"
)

var (
	errMissingToken = errors.New("authorization header missing")
	errBadHeader    = errors.New("invalid authorization header")
	errBadToken     = errors.New("invalid token")
)

// JWTProtected rejects requests without a valid bearer token and exposes the
// token identity through UserID, UserRole and UserName.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := bindIdentity(c, secret); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		return c.Next()
	}
}

// JWTOptional binds the identity when a valid bearer token is present and
// lets anonymous requests through. A malformed token is still rejected.
func JWTOptional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := bindIdentity(c, secret)
		if err != nil && !errors.Is(err, errMissingToken) {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or false for anonymous requests.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok && id != 0
}

// UserRole returns the role claim of the authenticated user.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localUserRole).(string)
	return role
}

// UserName returns the display name claim of the authenticated user.
func UserName(c *fiber.Ctx) string {
	name, _ := c.Locals(localUserName).(string)
	return name
}

func bindIdentity(c *fiber.Ctx, secret string) error {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		return errMissingToken
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return errBadHeader
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return errBadToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return errBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errBadToken
	}

	userID, err := subjectID(claims)
	if err != nil {
		return errBadToken
	}

	c.Locals(localUserID, userID)
	if role, ok := claims["role"].(string); ok {
		c.Locals(localUserRole, strings.ToLower(strings.TrimSpace(role)))
	}
	if name, ok := claims["name"].(string); ok {
		c.Locals(localUserName, strings.TrimSpace(name))
	}

	return nil
}

func subjectID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["sub"].(type) {
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || parsed == 0 {
			return 0, errBadToken
		}
		return uint(parsed), nil
	case float64:
		if v < 1 {
			return 0, errBadToken
		}
		return uint(v), nil
	default:
		return 0, errBadToken
	}
}
