package models

import (
	"strings"
	"time"
)

// Comment rows are hard deleted; there is no DeletedAt column.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content" validate:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CommentView is the wire shape of a comment: the row joined with the
// author's display fields.
type CommentView struct {
	ID                uint      `json:"id"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            uint      `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
}

// IsBlankContent reports whether content has nothing but whitespace.
func IsBlankContent(content string) bool {
	return strings.TrimSpace(content) == ""
}
