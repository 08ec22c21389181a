package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelForum/app/models"
	"github.com/ManuelReschke/PixelForum/app/services"
	"github.com/ManuelReschke/PixelForum/internal/pkg/usercontext"
)

// commentRequest is the body of create and update calls
type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CommentCreatedResponse is returned by a successful create
type CommentCreatedResponse struct {
	Message string              `json:"message"`
	Comment *models.CommentView `json:"comment"`
}

// CommentController maps the comment endpoints onto the comment service.
// Authentication is enforced by the router; ownership by the service.
type CommentController struct {
	service *services.CommentService
}

// NewCommentController creates a new comment controller
func NewCommentController(service *services.CommentService) *CommentController {
	return &CommentController{service: service}
}

// HandleListComments returns all comments of a post, oldest first. Public.
func (cc *CommentController) HandleListComments(c *fiber.Ctx) error {
	postID, ok := paramID(c, "postId")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	comments, err := cc.service.List(c.UserContext(), postID)
	if err != nil {
		return cc.respondError(c, "list comments", err)
	}
	return c.Status(fiber.StatusOK).JSON(comments)
}

// HandleCreateComment adds a comment authored by the authenticated caller
func (cc *CommentController) HandleCreateComment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	postID, ok := paramID(c, "postId")
	if !ok {
		return badRequest(c, "Invalid post id")
	}

	content, err := parseCommentRequest(c)
	if err != nil {
		return responded(err)
	}

	comment, err := cc.service.Create(c.UserContext(), postID, userCtx.UserID, content)
	if err != nil {
		return cc.respondError(c, "create comment", err)
	}
	return c.Status(fiber.StatusCreated).JSON(CommentCreatedResponse{
		Message: "Comment added successfully",
		Comment: comment,
	})
}

// HandleUpdateComment replaces the content of a comment owned by the caller
func (cc *CommentController) HandleUpdateComment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	commentID, ok := paramID(c, "commentId")
	if !ok {
		return badRequest(c, "Invalid comment id")
	}

	content, err := parseCommentRequest(c)
	if err != nil {
		return responded(err)
	}

	if err := cc.service.Update(c.UserContext(), commentID, userCtx.UserID, content); err != nil {
		return cc.respondError(c, "update comment", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Comment updated successfully"})
}

// HandleDeleteComment permanently removes a comment owned by the caller
func (cc *CommentController) HandleDeleteComment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	commentID, ok := paramID(c, "commentId")
	if !ok {
		return badRequest(c, "Invalid comment id")
	}

	if err := cc.service.Delete(c.UserContext(), commentID, userCtx.UserID); err != nil {
		return cc.respondError(c, "delete comment", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Comment deleted successfully"})
}

// parseCommentRequest decodes and validates the body. On failure the 400
// response is written and errResponseHandled returned.
func parseCommentRequest(c *fiber.Ctx) (string, error) {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return "", handled(badRequest(c, "Invalid request body"))
	}
	if err := validate.Struct(req); err != nil || models.IsBlankContent(req.Content) {
		return "", handled(emptyContent(c))
	}
	return req.Content, nil
}

func emptyContent(c *fiber.Ctx) error {
	return jsonError(c, fiber.StatusBadRequest, "validation_error", "Comment content must not be empty")
}

// respondError maps service errors to HTTP responses. Store failures are
// logged and answered with a generic message.
func (cc *CommentController) respondError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return emptyContent(c)
	case errors.Is(err, services.ErrNotFound):
		if action == "create comment" {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Post not found")
		}
		return jsonError(c, fiber.StatusNotFound, "not_found", "Comment not found")
	case errors.Is(err, services.ErrPermission):
		return jsonError(c, fiber.StatusForbidden, "permission_denied", "You are not allowed to modify this comment")
	default:
		log.Printf("%s failed: %v", action, err)
		return internalError(c, "Failed to "+action)
	}
}
