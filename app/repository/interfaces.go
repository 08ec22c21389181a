package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/PixelForum/app/models"
	"gorm.io/gorm"
)

// ErrPostNotFound is returned when a comment references a post that does not exist.
var ErrPostNotFound = errors.New("post not found")

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

// PostRepository defines the interface for post-related database operations
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	GetViewByID(id uint) (*models.PostView, error)
	Exists(id uint) (bool, error)
}

// CommentRepository defines the interface for comment-related database operations.
// Mutations are scoped to the owner: UpdateContent and Delete only touch a row
// whose user_id matches ownerID and report the number of affected rows.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID uint) ([]models.CommentView, error)
	Create(ctx context.Context, comment *models.Comment) error
	GetViewByID(ctx context.Context, id uint) (*models.CommentView, error)
	GetOwnership(ctx context.Context, id uint) (*models.Comment, error)
	UpdateContent(ctx context.Context, id, ownerID uint, content string, at time.Time) (int64, error)
	Delete(ctx context.Context, id, ownerID uint) (int64, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Post    PostRepository
	Comment CommentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Post:    NewPostRepository(db),
		Comment: NewCommentRepository(db),
	}
}
