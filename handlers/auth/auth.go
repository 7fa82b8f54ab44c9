package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/handlers"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	authutil "github.com/sahilchouksey/devcamper-api/utils/auth"
	"github.com/sahilchouksey/devcamper-api/utils/middleware"
	"github.com/sahilchouksey/devcamper-api/utils/response"
	"github.com/sahilchouksey/devcamper-api/utils/validation"
	"gorm.io/gorm"
)

// CookieName is the cookie the token is also sent in
const CookieName = "token"

// CookieConfig controls the token cookie
type CookieConfig struct {
	ExpireDays int
	Secure     bool
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
	cookie               CookieConfig
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, blacklistService *authutil.BlacklistService, bruteForceProtection *middleware.BruteForceProtection, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     blacklistService,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
		cookie:               cookie,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user publisher"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := handlers.ParseBody(c, h.validator, &req); err != nil {
		return err
	}

	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return apperror.Internal(err, "Failed to process password")
	}

	user := model.User{
		Name:         validation.SanitizeString(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashedPassword,
		Role:         req.Role,
	}

	if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.BadRequest("User with this email already exists")
		}
		return apperror.Internal(err, "Failed to create user")
	}

	return h.sendToken(c, &user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return apperror.BadRequest("Please provide an email and password")
	}

	ip := c.IP()

	// Unknown email and wrong password must be indistinguishable
	var user model.User
	err := h.db.WithContext(c.UserContext()).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Internal(err, "Failed to load user")
	}
	if err != nil || !authutil.MatchPassword(user.PasswordHash, req.Password) {
		h.bruteForceProtection.RecordFailure(c.UserContext(), ip)
		return apperror.Unauthorized("Invalid credentials")
	}

	h.bruteForceProtection.RecordSuccess(c.UserContext(), ip)

	return h.sendToken(c, &user)
}

// GetMe handles GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("Not authorized to access this route")
	}
	return response.Success(c, fiber.Map{"user": user})
}

// Logout handles GET /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return apperror.Unauthorized("Not authorized to access this route")
	}

	if err := h.blacklistService.RevokeToken(c.UserContext(), claims.ID, claims.UserID, claims.ExpiresAtTime(), "logout"); err != nil {
		return apperror.Internal(err, "Failed to revoke token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "none",
		Expires:  time.Now().Add(10 * time.Second),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return response.SuccessWithMessage(c, "Logged out", nil)
}

// sendToken issues a token for user and returns it in the body and a cookie
func (h *AuthHandler) sendToken(c *fiber.Ctx, user *model.User) error {
	token, _, err := h.jwtManager.GenerateToken(user.ID, user.TokenVersion)
	if err != nil {
		return apperror.Internal(err, "Failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.cookie.ExpireDays) * 24 * time.Hour),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return response.Token(c, fiber.StatusOK, token)
}
