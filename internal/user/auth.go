package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/craftisland/internal/apperr"
)

const tokenTTL = 72 * time.Hour

// IssueToken signs an HS256 session token for u.
func IssueToken(secret string, u User, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID.String(),
		"email":   u.Email,
		"role":    role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")`.
func GetUserIDFromCtx(c *fiber.Ctx) (string, error) {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return "", apperr.ErrUnauthenticated
	}
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", apperr.ErrUnauthenticated
	}
	return id, nil
}

func GetEmailFromCtx(c *fiber.Ctx) string {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// GetRoleFromCtx defaults to RoleUser when the claim is missing.
func GetRoleFromCtx(c *fiber.Ctx) string {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return RoleUser
	}
	if role, _ := claims["role"].(string); role == RoleOwner {
		return RoleOwner
	}
	return RoleUser
}

// RequireOwner rejects requests whose token does not carry the owner role.
func RequireOwner(c *fiber.Ctx) error {
	if _, err := GetUserIDFromCtx(c); err != nil {
		return apperr.Respond(c, err)
	}
	if GetRoleFromCtx(c) != RoleOwner {
		return apperr.Respond(c, apperr.ErrForbidden)
	}
	return c.Next()
}
