package seed

import (
	"context"
	"fmt"
	"testing"

	"restaurant-api/config"
	"restaurant-api/logger"
	"restaurant-api/models"
	"restaurant-api/services"
	"restaurant-api/store/sqlstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newServices(t *testing.T) (*services.MenuService, *services.AuthService) {
	t.Helper()
	db, err := config.OpenGorm(config.Database{
		Driver: config.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	s := sqlstore.New(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	return services.NewMenuService(s, logger.Discard()),
		services.NewAuthService(s, services.WithBcryptCost(bcrypt.MinCost))
}

func TestRunSeedsMenuAndAdmin(t *testing.T) {
	ctx := context.Background()
	menu, auth := newServices(t)

	res, err := Run(ctx, menu, auth, "", logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, len(sampleMenu), res.MenuItems)
	assert.True(t, res.AdminCreated)

	categories, err := menu.Categories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, models.Categories, categories)

	admin, err := auth.Login(ctx, AdminEmail, DefaultAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	menu, auth := newServices(t)

	_, err := Run(ctx, menu, auth, "s3cret-pass", logger.Discard())
	require.NoError(t, err)

	res, err := Run(ctx, menu, auth, "other-pass", logger.Discard())
	require.NoError(t, err)
	assert.Zero(t, res.MenuItems)
	assert.False(t, res.AdminCreated)

	items, err := menu.List(ctx, models.MenuFilter{})
	require.NoError(t, err)
	assert.Len(t, items, len(sampleMenu))

	_, err = auth.Login(ctx, AdminEmail, "s3cret-pass")
	assert.NoError(t, err)
}
