package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/auth"
	"gorm.io/gorm"
)

type localsKey int

const (
	userKey localsKey = iota
	claimsKey
)

const notAuthorized = "Not authorized to access this route"

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, blacklistService *auth.BlacklistService, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: blacklistService,
		db:               db,
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Protect requires a valid, unrevoked bearer token for an existing user
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return apperror.Unauthorized(notAuthorized)
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return apperror.Unauthorized("Token has expired")
			}
			return apperror.Unauthorized(notAuthorized)
		}

		isRevoked, err := m.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return apperror.Internal(err, "Failed to check token status")
		}
		if isRevoked {
			return apperror.Unauthorized("Token has been revoked")
		}

		// Load user from database and verify token version
		var user model.User
		if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized(notAuthorized)
			}
			return apperror.Internal(err, "Failed to load user")
		}

		if user.TokenVersion != claims.TokenVersion {
			return apperror.Unauthorized("Token has been invalidated")
		}

		c.Locals(userKey, &user)
		c.Locals(claimsKey, claims)

		return c.Next()
	}
}

// Authorize allows only the listed roles. Protect must run first.
func Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperror.Unauthorized(notAuthorized)
		}

		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}

		return apperror.Forbidden("User role %s is not authorized to access this route", user.Role)
	}
}

// CurrentUser returns the user attached by Protect
func CurrentUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(userKey).(*model.User)
	return u, ok && u != nil
}

// CurrentClaims returns the token claims attached by Protect
func CurrentClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}
