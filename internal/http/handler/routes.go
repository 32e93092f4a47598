package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fnolapi/internal/http/middleware"
	"fnolapi/internal/service"
)

// RegisterRoutes attaches all HTTP routes to the provided Fiber app.
// Handlers stay thin; the services own the business rules.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	gatherer prometheus.Gatherer,
	claimSvc service.ClaimService,
	dashSvc service.DashboardService,
	sessions *service.SessionRegistry,
) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")

	// Claimant intake flow, no authentication.
	api.Post("/policy/validate", ValidatePolicy(claimSvc))
	api.Post("/policy/extract", ExtractPolicyDocument(claimSvc))
	api.Post("/claims", SubmitClaim(claimSvc))
	api.Get("/claims/:id/questionnaire", GetQuestionnaire(claimSvc))
	api.Post("/claims/:id/answers", AnswerQuestion(claimSvc))
	api.Post("/claims/:id/finalize", FinalizeClaim(claimSvc))

	// Insurer dashboard, guarded by the session token from /login.
	insurer := api.Group("/insurer")
	insurer.Post("/login", Login(sessions))

	guarded := insurer.Group("", middleware.RequireSession(sessions))
	guarded.Get("/claims", ListClaims(dashSvc))
	guarded.Get("/claims/:id", GetClaim(dashSvc))
	guarded.Post("/claims/:id/refinalize", Refinalize(dashSvc))
	guarded.Get("/claims/:id/report.pdf", ExportClaimPDF(dashSvc))
	guarded.Get("/claims/:id/files/:fileID/download", DownloadClaimFile(dashSvc))
}
