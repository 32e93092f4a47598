package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"fnolapi/internal/ai"
	"fnolapi/internal/service"
)

// HealthCheck reports service health. Only database connectivity is
// checked; object storage and the AI gateway degrade per request.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is the bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Login exchanges the dashboard access code for a session token.
//
// @Summary Insurer dashboard login
// @Tags insurer
// @Accept json
// @Produce json
// @Router /api/v1/insurer/login [post]
func Login(sessions *service.SessionRegistry) fiber.Handler {
	type request struct {
		AccessCode string `json:"access_code"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		sess, err := sessions.Login(req.AccessCode)
		if err != nil {
			return writeError(c, fiber.StatusUnauthorized, "BAD_ACCESS_CODE", "access code does not match")
		}
		return c.JSON(sess)
	}
}

// ListClaims returns the paginated dashboard listing, newest first.
//
// @Summary List claims
// @Tags insurer
// @Produce json
// @Router /api/v1/insurer/claims [get]
func ListClaims(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.ListClaims(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetClaim returns the full dashboard detail view for one claim.
//
// @Summary Get claim detail
// @Tags insurer
// @Produce json
// @Router /api/v1/insurer/claims/{id} [get]
func GetClaim(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := svc.GetClaim(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrClaimNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "claim not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(detail)
	}
}

// Refinalize re-runs the final assessment for a claim still awaiting one.
//
// @Summary Re-run finalization
// @Tags insurer
// @Produce json
// @Router /api/v1/insurer/claims/{id}/refinalize [post]
func Refinalize(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, err := svc.Refinalize(c.UserContext(), c.Params("id"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrClaimNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "claim not found")
			case errors.Is(err, service.ErrAlreadyAssessed):
				return writeError(c, fiber.StatusConflict, "ALREADY_ASSESSED", "claim is already assessed")
			case errors.Is(err, ai.ErrUpstreamUnavailable):
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "assessment service is unavailable, please retry")
			case errors.Is(err, ai.ErrMalformedResponse):
				return writeError(c, fiber.StatusBadGateway, "ASSESSMENT_FAILED", "final assessment failed, please retry")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(claim)
	}
}

// ExportClaimPDF renders the printable claim report.
//
// @Summary Export a claim report as PDF
// @Tags insurer
// @Produce application/pdf
// @Router /api/v1/insurer/claims/{id}/report.pdf [get]
func ExportClaimPDF(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pdf, err := svc.ExportPDF(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrClaimNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "claim not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "EXPORT_FAILED", "could not render the report")
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "claim-"+c.Params("id")+".pdf"))
		return c.Send(pdf)
	}
}

// DownloadClaimFile streams one stored claim artifact.
//
// @Summary Download a claim file
// @Tags insurer
// @Produce application/octet-stream
// @Router /api/v1/insurer/claims/{id}/files/{fileID}/download [get]
func DownloadClaimFile(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := svc.DownloadFile(c.UserContext(), c.Params("id"), c.Params("fileID"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrClaimNotFound), errors.Is(err, service.ErrFileNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}
