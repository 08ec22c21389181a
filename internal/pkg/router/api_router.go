package router

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/PixelForum/app/controllers"
	"github.com/ManuelReschke/PixelForum/internal/pkg/constants"
	"github.com/ManuelReschke/PixelForum/internal/pkg/env"
	"github.com/ManuelReschke/PixelForum/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        env.GetInt("API_RATE_LIMIT", 120),
		Expiration: time.Minute,
		Storage:    h.deps.LimiterStorage,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})
	api.Get("/health", h.handleHealth)

	// API v1 routes
	h.registerForumRoutes(api.Group(constants.APIV1Route))

	// unversioned paths used by the mobile client
	h.registerForumRoutes(app)
}

func (h ApiRouter) registerForumRoutes(r fiber.Router) {
	requireAuth := middleware.BearerAuthMiddleware(h.deps.TokenSecret, h.deps.Repos.User)

	auth := controllers.NewAuthController(h.deps.Repos.User, h.deps.TokenSecret, h.deps.TokenTTL)
	r.Post(constants.RegisterRoute, auth.HandleRegister)
	r.Post(constants.LoginRoute, auth.HandleLogin)

	posts := controllers.NewPostController(h.deps.Repos.Post, h.deps.Comments)
	r.Get(constants.PostRoute, posts.HandleGetPost)

	comments := controllers.NewCommentController(h.deps.Comments)
	r.Get(constants.CommentsOfPostRoute, comments.HandleListComments)
	r.Post(constants.CommentsOfPostRoute, requireAuth, comments.HandleCreateComment)
	r.Put(constants.CommentRoute, requireAuth, comments.HandleUpdateComment)
	r.Delete(constants.CommentRoute, requireAuth, comments.HandleDeleteComment)
}

func (h ApiRouter) handleHealth(c *fiber.Ctx) error {
	if h.deps.DB == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": "not configured"})
	}
	sqlDB, err := h.deps.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Printf("health: database ping failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": "unreachable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
