package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/app/services"
)

// PostController serves the post read used next to the comment list
type PostController struct {
	posts    repository.PostRepository
	comments *services.CommentService
}

// NewPostController creates a new post controller
func NewPostController(posts repository.PostRepository, comments *services.CommentService) *PostController {
	return &PostController{posts: posts, comments: comments}
}

// HandleGetPost returns a post with its author and comment count. The count
// comes from the cached aggregate and is not read in the same transaction
// as the comment list.
func (pc *PostController) HandleGetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "postId")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	post, err := pc.posts.GetViewByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Post not found")
		}
		log.Printf("load post %d failed: %v", postID, err)
		return internalError(c, "Failed to load post")
	}

	count, err := pc.comments.CountForPost(c.UserContext(), postID)
	if err != nil {
		log.Printf("count comments of post %d failed: %v", postID, err)
		return internalError(c, "Failed to load post")
	}
	post.CommentCount = count

	return c.Status(fiber.StatusOK).JSON(post)
}
