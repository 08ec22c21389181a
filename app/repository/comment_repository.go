package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/PixelForum/app/models"
)

// mysqlErrNoReferencedRow is ER_NO_REFERENCED_ROW_2, raised on a foreign key miss.
const mysqlErrNoReferencedRow = 1452

const commentViewColumns = "c.id, c.content, c.created_at, u.id AS user_id, u.username, u.profile_picture_url"

// commentRepository implements the CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository instance
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("comments AS c").
		Select(commentViewColumns).
		Joins("JOIN users u ON u.id = c.user_id")
}

// ListByPost returns all comments of a post joined with the author's display
// fields, oldest first. Rows sharing a created_at are ordered by id.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.CommentView, error) {
	views := make([]models.CommentView, 0)
	err := r.viewQuery(ctx).
		Where("c.post_id = ?", postID).
		Order("c.created_at ASC, c.id ASC").
		Scan(&views).Error
	return views, err
}

// Create inserts a comment. The post is checked inside the same transaction;
// a foreign key violation from the insert is reported the same way.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPostNotFound
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if isForeignKeyViolation(err) {
		return ErrPostNotFound
	}
	return err
}

// GetViewByID retrieves a single comment joined with the author's display fields
func (r *commentRepository) GetViewByID(ctx context.Context, id uint) (*models.CommentView, error) {
	var views []models.CommentView
	err := r.viewQuery(ctx).Where("c.id = ?", id).Limit(1).Scan(&views).Error
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

// GetOwnership loads only id, post_id and user_id of a comment, the fields
// needed for the owner check. Missing rows yield gorm.ErrRecordNotFound.
func (r *commentRepository) GetOwnership(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Select("id", "post_id", "user_id").First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateContent sets content and updated_at on a comment owned by ownerID
func (r *commentRepository) UpdateContent(ctx context.Context, id, ownerID uint, content string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(map[string]any{"content": content, "updated_at": at})
	return result.RowsAffected, result.Error
}

// Delete permanently removes a comment owned by ownerID
func (r *commentRepository) Delete(ctx context.Context, id, ownerID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Comment{})
	return result.RowsAffected, result.Error
}

// CountByPost returns the number of comments of a post
func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrNoReferencedRow
}
