package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"fnolapi/docs"
	"fnolapi/internal/ai"
	"fnolapi/internal/config"
	"fnolapi/internal/database"
	"fnolapi/internal/database/migration"
	handlers "fnolapi/internal/http/handler"
	"fnolapi/internal/http/middleware"
	"fnolapi/internal/otel"
	"fnolapi/internal/policy"
	"fnolapi/internal/report"
	"fnolapi/internal/repository/postgres"
	"fnolapi/internal/service"
	"fnolapi/internal/storage"
)

// @title FNOL Intake API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()
	loc := time.UTC

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	caller, err := ai.NewAnthropicCaller(cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI gateway: %v", err)
	}
	gateway := ai.NewGateway(caller, time.Duration(cfg.AI.RequestTimeoutSec)*time.Second)

	// An external oracle endpoint takes priority; without one the service
	// falls back to the deterministic in-process oracle.
	var oracle policy.Oracle
	if cfg.Oracle.Endpoint != "" {
		oracle = policy.NewHTTPOracle(cfg.Oracle)
	} else {
		oracle = policy.NewStaticOracle(nil)
	}

	claimRepo := postgres.NewClaimPostgres(db)
	fileRepo := postgres.NewClaimFilePostgres(db)
	questionRepo := postgres.NewClaimQuestionPostgres(db)

	presignExpiry := time.Duration(cfg.MinIO.PresignExpiryHours) * time.Hour
	claimSvc := service.NewClaimService(claimRepo, fileRepo, questionRepo, objStore, gateway, oracle)
	dashSvc := service.NewDashboardService(claimRepo, fileRepo, questionRepo, objStore, gateway,
		report.NewChromiumPDFRenderer(), presignExpiry)
	sessions := service.NewSessionRegistry(cfg.Dashboard.AccessCode,
		time.Duration(cfg.Dashboard.SessionTTLHours)*time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    50 * 1024 * 1024, // claims carry several photos
	})

	registry := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, db, registry, claimSvc, dashSvc, sessions)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
