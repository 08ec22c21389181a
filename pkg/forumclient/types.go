package forumclient

import "time"

// Comment is a comment joined with its author's display fields.
type Comment struct {
	ID                uint      `json:"id"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            uint      `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
}

// Post is a post with author fields and its comment count.
type Post struct {
	ID                uint      `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	ImageURL          *string   `json:"image_url"`
	CreatedAt         time.Time `json:"created_at"`
	UserID            uint      `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
	CommentCount      int64     `json:"comment_count"`
}

type User struct {
	ID                uint    `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	Bio               string  `json:"bio"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}
