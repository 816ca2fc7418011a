package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/authgate/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return &GormRepo{DB: db}
}

func seedUser(t *testing.T, r *GormRepo, email, status string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Issuer:       "authgate/" + email,
		TokenID:      "k-" + email,
		TokenSecret:  "s-" + email,
		Status:       status,
	}
	require.NoError(t, r.DB.Create(user).Error)
	return user
}

func TestGormRepo_FindByID_FiltersInactive(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	active := seedUser(t, r, "active@example.com", models.StatusActive)
	inactive := seedUser(t, r, "inactive@example.com", models.StatusInactive)

	found, err := r.FindByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.Email, found.Email)

	_, err = r.FindByID(ctx, inactive.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByID(ctx, 9999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_FindByCriteria(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "user@example.com", models.StatusActive)
	seedUser(t, r, "other@example.com", models.StatusInactive)

	found, err := r.FindByCriteria(ctx, map[string]any{"email": "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Criteria lookups only see active users.
	_, err = r.FindByCriteria(ctx, map[string]any{"email": "other@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_CreateIfNotExists_Conflict(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	first := &models.User{Email: "user@example.com", PasswordHash: "x", Issuer: "i", TokenID: "k", TokenSecret: "s", Status: models.StatusActive}
	require.NoError(t, r.CreateIfNotExists(ctx, first))

	dup := &models.User{Email: "user@example.com", PasswordHash: "y", Issuer: "i2", TokenID: "k2", TokenSecret: "s2", Status: models.StatusActive}
	err := r.CreateIfNotExists(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestGormRepo_RotateCredentials(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "user@example.com", models.StatusActive)

	rotated, err := r.RotateCredentials(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, user.TokenID, rotated.TokenID)
	assert.NotEqual(t, user.TokenSecret, rotated.TokenSecret)

	stored, err := r.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, rotated.TokenID, stored.TokenID)
	assert.Equal(t, rotated.TokenSecret, stored.TokenSecret)

	_, err = r.RotateCredentials(ctx, 9999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
