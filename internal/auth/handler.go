package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore is the user table as seen by the auth handlers.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Phone string          `json:"phone,omitempty"`
	Role  models.UserRole `json:"role"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

// NewUser validates the request and hashes the password.
func NewUser(body RegisterRequest, role models.UserRole) (*models.User, error) {
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.Name = strings.TrimSpace(body.Name)

	if body.Email == "" || body.Password == "" || body.Name == "" {
		return nil, apperr.Validation("İsim, email ve şifre zorunlu")
	}
	if _, err := mail.ParseAddress(body.Email); err != nil {
		return nil, apperr.Validation("Geçersiz email adresi")
	}
	if len(body.Password) < 8 {
		return nil, apperr.Validation("Şifre en az 8 karakter olmalı")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Name:         body.Name,
		Email:        body.Email,
		Phone:        strings.TrimSpace(body.Phone),
		PasswordHash: string(hash),
		Role:         role,
	}, nil
}

func createUnique(ctx context.Context, users UserStore, u *models.User) error {
	if _, err := users.FindUserByEmail(ctx, u.Email); err == nil {
		return apperr.Validation("Bu email adresi zaten kayıtlı")
	} else if !errors.Is(err, ErrUserNotFound) {
		return apperr.Persistence(err, "find user by email")
	}
	if err := users.CreateUser(ctx, u); err != nil {
		return apperr.Persistence(err, "create user")
	}
	return nil
}

// POST /api/auth/register
func RegisterHandler(users UserStore, tokens *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		user, err := NewUser(body, models.RoleUser)
		if err != nil {
			return err
		}
		if err := createUnique(c.UserContext(), users, user); err != nil {
			return err
		}

		token, err := tokens.GenerateToken(user)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(apperr.OK(TokenResponse{Token: token, User: toUserResponse(user)}))
	}
}

// POST /api/auth/bootstrap-admin: sistemde yönetici yoksa ilkini oluşturur
func BootstrapAdminHandler(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		count, err := users.CountUsersByRole(c.UserContext(), models.RoleAdmin)
		if err != nil {
			return apperr.Persistence(err, "count admins")
		}
		if count > 0 {
			return apperr.Forbidden("Zaten bir yönetici var")
		}

		user, err := NewUser(body, models.RoleAdmin)
		if err != nil {
			return err
		}
		if err := createUnique(c.UserContext(), users, user); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(apperr.OK(toUserResponse(user)))
	}
}

// POST /api/auth/login
func LoginHandler(users UserStore, tokens *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := users.FindUserByEmail(c.UserContext(), body.Email)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return apperr.Unauthorized("Email veya şifre hatalı")
			}
			return apperr.Persistence(err, "find user by email")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Unauthorized("Email veya şifre hatalı")
		}

		token, err := tokens.GenerateToken(user)
		if err != nil {
			return err
		}
		return c.JSON(apperr.OK(TokenResponse{Token: token, User: toUserResponse(user)}))
	}
}

// GET /api/auth/me
func MeHandler(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if id == nil {
			return apperr.Unauthorized("Bu işlem için giriş yapmalısınız")
		}

		user, err := users.FindUserByID(c.UserContext(), id.UserID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return apperr.Unauthorized("Kullanıcı bulunamadı")
			}
			return apperr.Persistence(err, "find user by id")
		}
		return c.JSON(apperr.OK(toUserResponse(user)))
	}
}
