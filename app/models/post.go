package models

import (
	"time"
)

// Post is the parent of a comment thread.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Content   string    `gorm:"type:text;not null" json:"content" validate:"required"`
	ImageURL  *string   `gorm:"type:varchar(255);default:null" json:"image_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PostView is a post joined with its author's display fields and the
// comment aggregate.
type PostView struct {
	ID                uint      `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	ImageURL          *string   `json:"image_url"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            uint      `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
	CommentCount      int64     `gorm:"-" json:"comment_count"`
}
