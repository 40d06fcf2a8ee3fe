package services

import (
	"context"
	"testing"

	"restaurant-api/apperror"
	"restaurant-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T, allowRegistration bool) *AuthService {
	return NewAuthService(newTestStore(t), WithRegistration(allowRegistration), WithBcryptCost(bcrypt.MinCost))
}

func TestRegisterDisabledByDefault(t *testing.T) {
	svc := NewAuthService(newTestStore(t), WithBcryptCost(bcrypt.MinCost))
	_, err := svc.Register(context.Background(), RegisterInput{Username: "chef", Email: "chef@restaurant.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuth(t, true)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "chef", Email: "  Chef@Restaurant.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "chef@restaurant.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	logged, err := svc.Login(ctx, "CHEF@restaurant.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, "chef@restaurant.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@restaurant.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, RegisterInput{Username: "chef2", Email: "chef@restaurant.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAccountExists)

	// same username, different email hits the unique index
	_, err = svc.Register(ctx, RegisterInput{Username: "chef", Email: "other@restaurant.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAccountExists)

	profile, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "chef", profile.Username)
	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuth(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "ab", Email: "ab@restaurant.com", Password: "secret1"})
	assert.ErrorIs(t, err, errUsernameTooShort)

	_, err = svc.Register(ctx, RegisterInput{Username: "chef", Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, errInvalidEmail)

	_, err = svc.Register(ctx, RegisterInput{Username: "chef", Email: "chef@restaurant.com", Password: "12345"})
	assert.ErrorIs(t, err, errPasswordTooShort)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newAuth(t, false)
	ctx := context.Background()
	in := RegisterInput{Username: "admin", Email: "admin@restaurant.com", Password: "admin123"}

	first, created, err := svc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}
