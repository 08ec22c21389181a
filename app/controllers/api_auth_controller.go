package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelForum/app/models"
	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/internal/pkg/security"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the bearer token and the signed-in user
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// AuthController issues bearer access tokens
type AuthController struct {
	users    repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

// NewAuthController creates a new auth controller
func NewAuthController(users repository.UserRepository, secret string, tokenTTL time.Duration) *AuthController {
	return &AuthController{users: users, secret: secret, tokenTTL: tokenTTL}
}

// HandleRegister creates an account and signs it in
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", "Username (3-50 chars), valid email and password (min 6 chars) are required")
	}

	if _, err := ac.users.GetByEmail(req.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("register: email lookup failed: %v", err)
		return internalError(c, "Failed to register user")
	}
	if _, err := ac.users.GetByUsername(req.Username); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "Username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("register: username lookup failed: %v", err)
		return internalError(c, "Failed to register user")
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}
	if err := ac.users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return jsonError(c, fiber.StatusConflict, "conflict", "Username or email already registered")
		}
		log.Printf("register: create failed: %v", err)
		return internalError(c, "Failed to register user")
	}

	return ac.respondWithToken(c, fiber.StatusCreated, "User registered successfully", user)
}

// HandleLogin verifies credentials and returns a bearer token
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_error", "Email and password are required")
	}

	// notice: do not tell the client which of email or password was wrong
	user, err := ac.users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
		}
		log.Printf("login: user lookup failed: %v", err)
		return internalError(c, "Failed to log in")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "User inactive")
	}

	return ac.respondWithToken(c, fiber.StatusOK, "Login successful", user)
}

func (ac *AuthController) respondWithToken(c *fiber.Ctx, status int, message string, user *models.User) error {
	token, err := security.GenerateAccessToken(user.ID, user.Username, ac.tokenTTL, ac.secret)
	if err != nil {
		log.Printf("token generation failed for user %d: %v", user.ID, err)
		return internalError(c, "Failed to issue token")
	}
	return c.Status(status).JSON(AuthResponse{
		Message: message,
		Token:   token,
		User:    user,
	})
}
