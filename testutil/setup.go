package testutil

import (
	"testing"

	"github.com/fitforge/server/cache"
	dbadapter "github.com/fitforge/server/db"
	"github.com/fitforge/server/config"
	"github.com/fitforge/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory database and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{}) // empty RedisAddr → LocalCache
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}

// CreateUser inserts a user with the given name and level and returns it.
func CreateUser(t *testing.T, db *gorm.DB, username string, level int) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		PasswordHash: "x",
		Status:       model.UserStatusActive,
		Level:        level,
	}
	require.NoError(t, db.Create(u).Error, "CreateUser")
	return u
}
