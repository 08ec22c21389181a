package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/app/services"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the wired components the routes delegate to
type Dependencies struct {
	DB          *gorm.DB
	Repos       *repository.Repositories
	Comments    *services.CommentService
	TokenSecret string
	TokenTTL    time.Duration

	// LimiterStorage backs the API rate limiter; nil keeps counters in memory
	LimiterStorage fiber.Storage
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
