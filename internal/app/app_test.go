package app

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finalfeliz/config"
	"finalfeliz/internal/domain"
	"finalfeliz/internal/pkg/cache"
	"finalfeliz/internal/pkg/logger"
	"finalfeliz/internal/pkg/token"
	"finalfeliz/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		DBTimeout:     time.Second,
		CacheTTL:      time.Minute,
		SessionSecret: "segredo",
		AdminName:     "Administrador",
		AdminEmail:    "admin@finalfeliz.cl",
		AdminPassword: "Admin123!",
	}
}

func TestAssemble_BootstrapsAdminAndRestoresSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	kv := cache.NewMemoryClient()
	tok, err := token.NewService(cfg.SessionSecret, 0).GenerateToken(42)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), session.Key, tok, 0))

	mock.ExpectExec(`INSERT INTO users .+ ON CONFLICT \(email\) DO NOTHING`).
		WithArgs("Administrador", "admin@finalfeliz.cl", "Admin123!").
		WillReturnResult(sqlmock.NewResult(0, 0))

	a := Assemble(context.Background(), cfg, db, kv, logger.NewNop())

	id, ok := a.Session.Current()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.NotNil(t, a.Users)
	assert.NotNil(t, a.Products)
	assert.NotNil(t, a.Cart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssemble_AdminBootstrapErrorsAreSwallowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(assert.AnError)

	a := Assemble(context.Background(), testConfig(), db, cache.NewMemoryClient(), logger.NewNop())

	_, ok := a.Session.Current()
	assert.False(t, ok)
}

func TestApp_ControllersShareTheCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))

	a := Assemble(context.Background(), testConfig(), db, cache.NewMemoryClient(), logger.NewNop())
	ctx := context.Background()

	cartCtl := a.CartController(ctx)
	defer cartCtl.Close()
	profileCtl := a.ProfileController(ctx)
	defer profileCtl.Close()

	a.Cart.Add(domain.Product{ID: 1, Name: "Clásico Roble", PriceCLP: 349000}, 2)
	assert.Eventually(t, func() bool { return cartCtl.State().Count == 2 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, profileCtl.State().User)
	require.NoError(t, a.Close())
}
