package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"fnolapi/internal/ai"
	"fnolapi/internal/intake"
	"fnolapi/internal/model"
	"fnolapi/internal/policy"
	"fnolapi/internal/service"
)

const incidentDateLayout = "2006-01-02"

// readUpload buffers one multipart file into a service.Upload.
func readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.Upload{}, err
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return service.Upload{FileName: fh.Filename, ContentType: ct, Data: data}, nil
}

func readUploads(fhs []*multipart.FileHeader) ([]service.Upload, error) {
	ups := make([]service.Upload, 0, len(fhs))
	for _, fh := range fhs {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		ups = append(ups, up)
	}
	return ups, nil
}

// ValidatePolicy checks a policy number against the policy oracle.
//
// @Summary Validate a policy number
// @Tags policy
// @Accept json
// @Produce json
// @Router /api/v1/policy/validate [post]
func ValidatePolicy(svc service.ClaimService) fiber.Handler {
	type request struct {
		PolicyNumber string `json:"policy_number"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		verdict, err := svc.ValidatePolicy(c.UserContext(), req.PolicyNumber)
		if err != nil {
			if errors.Is(err, policy.ErrOracleUnavailable) {
				return writeError(c, fiber.StatusServiceUnavailable, "ORACLE_UNAVAILABLE", "policy validation is temporarily unavailable")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(verdict)
	}
}

// ExtractPolicyDocument reads an uploaded policy document and returns
// best-effort pre-fill fields.
//
// @Summary Extract policy details from a document
// @Tags policy
// @Accept multipart/form-data
// @Produce json
// @Router /api/v1/policy/extract [post]
func ExtractPolicyDocument(svc service.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("document")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "document is required")
		}
		up, err := readUpload(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}

		res, err := svc.ExtractPolicyDocument(c.UserContext(), up)
		if err != nil {
			if errors.Is(err, ai.ErrUpstreamUnavailable) {
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "extraction service is unavailable, please retry")
			}
			// Extraction failures never block the claimant; the client
			// falls back to manual entry on this code.
			return writeError(c, fiber.StatusBadGateway, "EXTRACTION_FAILED", "could not read the document")
		}
		return c.JSON(res)
	}
}

// SubmitClaim runs the full intake: policy gate, uploads, initial AI
// assessment and claim creation.
//
// @Summary Submit a new claim
// @Tags claims
// @Accept multipart/form-data
// @Produce json
// @Router /api/v1/claims [post]
func SubmitClaim(svc service.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "multipart form is required")
		}

		value := func(key string) string {
			if vs := form.Value[key]; len(vs) > 0 {
				return vs[0]
			}
			return ""
		}

		incidentDate, err := time.Parse(incidentDateLayout, value("incident_date"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "incident_date must be YYYY-MM-DD")
		}

		vehicleYear, _ := strconv.Atoi(value("vehicle_year"))
		in := service.SubmitClaimInput{
			PolicyNumber: value("policy_number"),
			IncidentType: value("incident_type"),
			IncidentDate: incidentDate,
			Description:  value("description"),
			Location:     value("location"),
			Vehicle: model.VehicleDetails{
				Make:         value("vehicle_make"),
				Model:        value("vehicle_model"),
				Year:         vehicleYear,
				VIN:          value("vehicle_vin"),
				LicensePlate: value("vehicle_license_plate"),
			},
		}

		in.Photos, err = readUploads(form.File["photos"])
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		if docs := form.File["policy_document"]; len(docs) > 0 {
			doc, err := readUpload(docs[0])
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			in.PolicyDocument = &doc
		}

		res, err := svc.SubmitClaim(c.UserContext(), in)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPolicyNotEligible):
				return writeError(c, fiber.StatusUnprocessableEntity, "POLICY_NOT_ELIGIBLE", "policy is not eligible for a claim")
			case errors.Is(err, service.ErrPhotoRequired), errors.Is(err, ai.ErrNoPhotos):
				return writeError(c, fiber.StatusBadRequest, "PHOTO_REQUIRED", "at least one damage photo is required")
			case errors.Is(err, service.ErrIncidentInFuture):
				return writeError(c, fiber.StatusBadRequest, "INCIDENT_DATE_IN_FUTURE", "incident date must not be in the future")
			case errors.Is(err, policy.ErrOracleUnavailable):
				return writeError(c, fiber.StatusServiceUnavailable, "ORACLE_UNAVAILABLE", "policy validation is temporarily unavailable")
			case errors.Is(err, ai.ErrUpstreamUnavailable):
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "assessment service is unavailable, please retry")
			case errors.Is(err, ai.ErrMalformedResponse):
				return writeError(c, fiber.StatusBadGateway, "ASSESSMENT_FAILED", "initial assessment failed, please retry")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GetQuestionnaire returns the categorized follow-up questionnaire for a
// claim.
//
// @Summary Get the claim questionnaire
// @Tags claims
// @Produce json
// @Router /api/v1/claims/{id}/questionnaire [get]
func GetQuestionnaire(svc service.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.GetQuestionnaire(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrClaimNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "claim not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(view)
	}
}

// AnswerQuestion records one questionnaire answer.
//
// @Summary Answer a follow-up question
// @Tags claims
// @Accept json
// @Produce json
// @Router /api/v1/claims/{id}/answers [post]
func AnswerQuestion(svc service.ClaimService) fiber.Handler {
	type request struct {
		QuestionID string `json:"question_id"`
		Answer     string `json:"answer"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		err := svc.AnswerQuestion(c.UserContext(), c.Params("id"), req.QuestionID, req.Answer)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrQuestionNotFound):
				return writeError(c, fiber.StatusNotFound, "QUESTION_NOT_FOUND", "question not found")
			case errors.Is(err, service.ErrAnswerRequired), errors.Is(err, service.ErrIDRequired):
				return writeError(c, fiber.StatusBadRequest, "INVALID_ANSWER", "question_id and a non-blank answer are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// FinalizeClaim submits the questionnaire and runs the final AI assessment.
// Accepts multipart (answers JSON field plus optional photos) or a plain
// JSON body with an answers object.
//
// @Summary Finalize a claim
// @Tags claims
// @Accept multipart/form-data
// @Produce json
// @Router /api/v1/claims/{id}/finalize [post]
func FinalizeClaim(svc service.ClaimService) fiber.Handler {
	type request struct {
		Answers map[string]string `json:"answers"`
	}

	return func(c *fiber.Ctx) error {
		var answers map[string]string
		var photos []service.Upload

		if form, err := c.MultipartForm(); err == nil {
			if vs := form.Value["answers"]; len(vs) > 0 && vs[0] != "" {
				if err := json.Unmarshal([]byte(vs[0]), &answers); err != nil {
					return writeError(c, fiber.StatusBadRequest, "INVALID_ANSWERS", "answers must be a JSON object")
				}
			}
			photos, err = readUploads(form.File["photos"])
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
		} else if len(c.Body()) > 0 {
			var req request
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
			answers = req.Answers
		}

		claim, err := svc.FinalizeClaim(c.UserContext(), c.Params("id"), answers, photos)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrClaimNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "claim not found")
			case errors.Is(err, service.ErrQuestionNotFound):
				return writeError(c, fiber.StatusNotFound, "QUESTION_NOT_FOUND", "question not found")
			case errors.Is(err, intake.ErrQuestionnaireIncomplete):
				return writeError(c, fiber.StatusUnprocessableEntity, "QUESTIONNAIRE_INCOMPLETE", "required questions are unanswered")
			case errors.Is(err, service.ErrAlreadyAssessed):
				return writeError(c, fiber.StatusConflict, "ALREADY_ASSESSED", "claim is already assessed")
			case errors.Is(err, service.ErrFinalizeInFlight):
				return writeError(c, fiber.StatusConflict, "FINALIZE_IN_FLIGHT", "finalization is already running for this claim")
			case errors.Is(err, ai.ErrUpstreamUnavailable):
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "assessment service is unavailable, answers are preserved, please retry")
			case errors.Is(err, ai.ErrMalformedResponse):
				return writeError(c, fiber.StatusBadGateway, "ASSESSMENT_FAILED", "final assessment failed, answers are preserved, please retry")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(claim)
	}
}
