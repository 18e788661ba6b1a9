package users

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db"
	"github.com/shoplane/shoplane-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT,
  last_name TEXT,
  phone TEXT,
  address TEXT,
  city TEXT,
  state TEXT,
  zip_code TEXT,
  country TEXT NOT NULL DEFAULT 'USA',
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(users).Error)
	return conn
}

func createTestUser(t *testing.T, repo *Repository, username, email string) int64 {
	t.Helper()

	user, err := repo.Create(context.Background(), CreateUserDTO{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Role:         enums.UserRoleCustomer,
	})
	require.NoError(t, err)
	return user.ID
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	id := createTestUser(t, repo, "shopper", "shopper@example.com")

	byEmail, err := repo.FindByEmail(context.Background(), "shopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "USA", byEmail.Country)
	assert.True(t, byEmail.IsActive)

	byUsername, err := repo.FindByUsername(context.Background(), "shopper")
	require.NoError(t, err)
	assert.Equal(t, id, byUsername.ID)

	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	createTestUser(t, repo, "first", "dup@example.com")

	_, err := repo.Create(context.Background(), CreateUserDTO{
		Username:     "second",
		Email:        "dup@example.com",
		PasswordHash: "hash",
		Role:         enums.UserRoleCustomer,
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "email"))
}

func TestRepositoryUpdateProfile(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	id := createTestUser(t, repo, "shopper", "shopper@example.com")

	phone := "555-0100"
	city := "Springfield"
	updated, err := repo.UpdateProfile(context.Background(), id, UpdateProfileDTO{
		Phone: &phone,
		City:  &city,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	require.NotNil(t, updated.City)
	assert.Equal(t, city, *updated.City)
	assert.Equal(t, "shopper", updated.Username, "untouched fields must survive")
}

func TestRepositoryUpdateProfileNoChanges(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	id := createTestUser(t, repo, "shopper", "shopper@example.com")

	updated, err := repo.UpdateProfile(context.Background(), id, UpdateProfileDTO{})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	id := createTestUser(t, repo, "shopper", "shopper@example.com")

	at := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), id, at))

	user, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, user.LastLoginAt.Equal(at))
}

func TestRepositoryListAllNewestFirst(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	older := createTestUser(t, repo, "older", "older@example.com")
	newer := createTestUser(t, repo, "newer", "newer@example.com")
	require.NoError(t, conn.Exec(
		"UPDATE users SET created_at = ? WHERE id = ?", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), older).Error)
	require.NoError(t, conn.Exec(
		"UPDATE users SET created_at = ? WHERE id = ?", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), newer).Error)

	users, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "newer", users[0].Username)
	assert.Equal(t, "older", users[1].Username)
}

func TestRepositoryDeactivate(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	id := createTestUser(t, repo, "leaving", "leaving@example.com")
	require.NoError(t, repo.Deactivate(context.Background(), id))

	user, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestRepositoryDeactivateMissingUser(t *testing.T) {
	conn := setupUsersTestDB(t)
	repo := NewRepository(conn)

	err := repo.Deactivate(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
