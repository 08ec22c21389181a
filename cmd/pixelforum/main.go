package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/app/services"
	"github.com/ManuelReschke/PixelForum/internal/pkg/cache"
	"github.com/ManuelReschke/PixelForum/internal/pkg/constants"
	"github.com/ManuelReschke/PixelForum/internal/pkg/database"
	"github.com/ManuelReschke/PixelForum/internal/pkg/env"
	"github.com/ManuelReschke/PixelForum/internal/pkg/metrics"
	"github.com/ManuelReschke/PixelForum/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "3001")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repos := repository.NewRepositories(database.GetDB())

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	commentMetrics, err := metrics.NewCommentMetrics(registry)
	if err != nil {
		log.Fatalf("metrics setup failed: %v", err)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "PixelForum",
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery, request ids and logging
	app.Use(
		recover.New(),
		requestid.New(requestid.Config{Generator: uuid.NewString}),
		logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}),
	)

	// prometheus metrics
	metricsUser, metricsPassword, err := metricsCredentials()
	if err != nil {
		log.Fatal(err)
	}
	app.Get(constants.MetricsRoute, basicauth.New(basicauth.Config{
		Users: map[string]string{metricsUser: metricsPassword},
	}), adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// SWAGGER / OPENAPI
	if basePath, ok := findBasePath(); ok {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsBasePath,
			FilePath: basePath + constants.OpenAPIDocPath,
			Path:     "v1",
		}))
	} else {
		log.Printf("OpenAPI document not found, /docs/api/v1 disabled")
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		DB:          database.GetDB(),
		Repos:       repos,
		Comments:    services.NewCommentService(repos.Comment, cache.NewCountStore(), commentMetrics),
		TokenSecret: tokenSecret(),
		TokenTTL:    env.GetDuration("AUTH_TOKEN_TTL", 7*24*time.Hour),

		LimiterStorage: cache.NewLimiterStorage(),
	})

	return app
}

// findBasePath locates the project root from the usual working directories
func findBasePath() (string, bool) {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/pixelforum to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + constants.OpenAPIDocPath); err == nil {
			return path, true
		}
	}
	return "", false
}

// metricsCredentials reads the basic auth pair guarding /metrics. Only
// development servers fall back to admin/test.
func metricsCredentials() (string, string, error) {
	user := env.GetEnv("METRICS_USER", "")
	password := env.GetEnv("METRICS_PASSWORD", "")
	if user != "" && password != "" {
		return user, password, nil
	}
	if !env.IsDev() {
		return "", "", errors.New("METRICS_USER and METRICS_PASSWORD must be set")
	}
	log.Printf("Warning: METRICS_USER/METRICS_PASSWORD not set, using development credentials")
	return "admin", "test", nil
}

// tokenSecret reads AUTH_TOKEN_SECRET. Development servers get a random
// per-process secret, which invalidates tokens on restart.
func tokenSecret() string {
	if secret := env.GetEnv("AUTH_TOKEN_SECRET", ""); secret != "" {
		return secret
	}
	if !env.IsDev() {
		log.Fatal("AUTH_TOKEN_SECRET must be set")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("could not generate token secret: %v", err)
	}
	log.Printf("Warning: AUTH_TOKEN_SECRET not set, using a random development secret")
	return hex.EncodeToString(b)
}
