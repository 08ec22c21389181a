// Package dbtest opens throwaway sqlite databases with the forum schema for tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/PixelForum/app/models"
	"github.com/ManuelReschke/PixelForum/internal/pkg/database"
)

// New returns an in-memory database with foreign keys enforced. A single
// connection is used so every query sees the same memory database.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := database.Config()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedUser inserts an active user with the given username.
func SeedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u, err := models.CreateUser(username, fmt.Sprintf("%s@example.com", username), "secret123")
	require.NoError(t, err)
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedPost inserts a post authored by owner.
func SeedPost(t *testing.T, db *gorm.DB, owner *models.User) *models.Post {
	t.Helper()

	p := &models.Post{UserID: owner.ID, Title: "Hello", Content: "First post"}
	require.NoError(t, db.Omit("User").Create(p).Error)
	return p
}

// SeedComment inserts a comment with a fixed creation time.
func SeedComment(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, content string, createdAt time.Time) *models.Comment {
	t.Helper()

	c := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Omit("Post", "User").Create(c).Error)
	return c
}
