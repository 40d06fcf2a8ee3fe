package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"restaurant-api/apperror"
	"restaurant-api/logger"
	"restaurant-api/models"
	"restaurant-api/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("Invalid email or password")
	ErrRegistrationClosed = apperror.Forbidden("Registration is disabled")
	ErrUserNotFound       = apperror.NotFound("User not found")
	ErrAccountExists      = apperror.Conflict("Username or email already registered")
	errUsernameTooShort   = apperror.Validation("Username must be at least 3 characters")
	errInvalidEmail       = apperror.Validation("Please provide a valid email")
	errPasswordTooShort   = apperror.Validation("Password must be at least 6 characters")
)

var validate = validator.New()

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthService struct {
	users             store.UserStore
	allowRegistration bool
	cost              int
	log               *slog.Logger
	now               func() time.Time
}

type AuthOption func(*AuthService)

func WithRegistration(allowed bool) AuthOption {
	return func(s *AuthService) { s.allowRegistration = allowed }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

func WithAuthLogger(log *slog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(users store.UserStore, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users: users,
		cost:  bcrypt.DefaultCost,
		log:   logger.Discard(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an admin account when self-registration is enabled.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !s.allowRegistration {
		return nil, ErrRegistrationClosed
	}
	return s.createAdmin(ctx, in)
}

// EnsureAdmin creates the account unless one with the same email exists.
// It ignores the registration switch and reports whether it created one.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, bool, error) {
	existing, err := s.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("look up %s: %w", in.Email, err)
	}
	user, err := s.createAdmin(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *AuthService) createAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if len([]rune(username)) < 3 {
		return nil, errUsernameTooShort
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, errInvalidEmail
	}
	if len(in.Password) < 6 {
		return nil, errPasswordTooShort
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("admin account created", slog.String("user_id", user.ID), slog.String("email", user.Email))
	return user, nil
}

// Login checks the password and returns the account on success. Unknown
// emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login failed", slog.String("email", user.Email))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}
