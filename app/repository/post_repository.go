package repository

import (
	"github.com/ManuelReschke/PixelForum/app/models"
	"gorm.io/gorm"
)

// postRepository implements the PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create creates a new post in the database
func (r *postRepository) Create(post *models.Post) error {
	return r.db.Omit("User").Create(post).Error
}

// GetByID retrieves a post by its ID
func (r *postRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetViewByID retrieves a post joined with its author's display fields.
// The comment count is filled in by the caller from the cached aggregate.
func (r *postRepository) GetViewByID(id uint) (*models.PostView, error) {
	var views []models.PostView
	err := r.db.Table("posts AS p").
		Select("p.id, p.title, p.content, p.image_url, p.created_at, u.id AS user_id, u.username, u.profile_picture_url").
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.id = ?", id).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

// Exists checks if a post with the given ID exists
func (r *postRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
