package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fnolapi/internal/ai"
	"fnolapi/internal/http/middleware"
	"fnolapi/internal/intake"
	"fnolapi/internal/model"
	"fnolapi/internal/policy"
	"fnolapi/internal/service"
	serviceMocks "fnolapi/internal/service/mocks"
	"fnolapi/internal/storage"
)

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidatePolicy(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Post("/policy/validate", ValidatePolicy(mockSvc))

	t.Run("valid policy", func(t *testing.T) {
		verdict := &model.PolicyVerdict{Valid: true, Status: model.PolicyStatusActive}
		mockSvc.On("ValidatePolicy", mock.Anything, "POL-123456").Return(verdict, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(t, map[string]string{"policy_number": "POL-123456"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.PolicyVerdict
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.Valid)
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad format still returns 200 with reason", func(t *testing.T) {
		verdict := &model.PolicyVerdict{Valid: false, Message: "Policy number format invalid. Expected format: POL-XXXXXX"}
		mockSvc.On("ValidatePolicy", mock.Anything, "NOPE").Return(verdict, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(t, map[string]string{"policy_number": "NOPE"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.PolicyVerdict
		json.NewDecoder(resp.Body).Decode(&result)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Message, "format invalid")
	})

	t.Run("oracle down", func(t *testing.T) {
		mockSvc.On("ValidatePolicy", mock.Anything, "POL-123456").
			Return(nil, policy.ErrOracleUnavailable).Once()

		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(t, map[string]string{"policy_number": "POL-123456"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ORACLE_UNAVAILABLE", body.Error.Code)
	})
}

func multipartClaim(t *testing.T, withPhoto bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("policy_number", "POL-123456")
	writer.WriteField("incident_type", "collision")
	writer.WriteField("incident_date", "2026-08-01")
	writer.WriteField("description", "rear-ended at a light")
	writer.WriteField("vehicle_make", "Toyota")
	writer.WriteField("vehicle_year", "2021")
	if withPhoto {
		part, _ := writer.CreateFormFile("photos", "front.jpg")
		part.Write([]byte{0xff, 0xd8, 0xff})
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestSubmitClaim(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Post("/claims", SubmitClaim(mockSvc))

	t.Run("success", func(t *testing.T) {
		res := &service.SubmitClaimResult{
			Claim:     &model.Claim{ID: uuid.New().String(), ClaimNumber: "CLM-100001"},
			Questions: []model.ClaimQuestion{{ID: uuid.New().String(), Question: "Did the airbags deploy?"}},
		}
		mockSvc.On("SubmitClaim", mock.Anything, mock.MatchedBy(func(in service.SubmitClaimInput) bool {
			return in.PolicyNumber == "POL-123456" &&
				in.Vehicle.Make == "Toyota" && in.Vehicle.Year == 2021 &&
				len(in.Photos) == 1 && in.Photos[0].FileName == "front.jpg"
		})).Return(res, nil).Once()

		body, ct := multipartClaim(t, true)
		req := httptest.NewRequest(http.MethodPost, "/claims", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result service.SubmitClaimResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "CLM-100001", result.Claim.ClaimNumber)
		assert.Len(t, result.Questions, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("ineligible policy", func(t *testing.T) {
		mockSvc.On("SubmitClaim", mock.Anything, mock.Anything).
			Return(nil, service.ErrPolicyNotEligible).Once()

		body, ct := multipartClaim(t, true)
		req := httptest.NewRequest(http.MethodPost, "/claims", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "POLICY_NOT_ELIGIBLE", res.Error.Code)
	})

	t.Run("no photos", func(t *testing.T) {
		mockSvc.On("SubmitClaim", mock.Anything, mock.Anything).
			Return(nil, service.ErrPhotoRequired).Once()

		body, ct := multipartClaim(t, false)
		req := httptest.NewRequest(http.MethodPost, "/claims", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "PHOTO_REQUIRED", res.Error.Code)
	})

	t.Run("bad incident date", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("incident_date", "01/08/2026")
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/claims", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_DATE", res.Error.Code)
	})

	t.Run("assessment failure", func(t *testing.T) {
		mockSvc.On("SubmitClaim", mock.Anything, mock.Anything).
			Return(nil, ai.ErrMalformedResponse).Once()

		body, ct := multipartClaim(t, true)
		req := httptest.NewRequest(http.MethodPost, "/claims", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ASSESSMENT_FAILED", res.Error.Code)
	})

	t.Run("assessment service unavailable", func(t *testing.T) {
		mockSvc.On("SubmitClaim", mock.Anything, mock.Anything).
			Return(nil, ai.ErrUpstreamUnavailable).Once()

		body, ct := multipartClaim(t, true)
		req := httptest.NewRequest(http.MethodPost, "/claims", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
	})
}

func TestExtractPolicyDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Post("/policy/extract", ExtractPolicyDocument(mockSvc))

	document := func(t *testing.T) (*bytes.Buffer, string) {
		t.Helper()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("document", "policy.pdf")
		part.Write([]byte("%PDF-1.4"))
		writer.Close()
		return body, writer.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		number := "POL-123456"
		res := &model.PolicyExtraction{PolicyNumber: &number, ExtractionConfidence: 0.9}
		mockSvc.On("ExtractPolicyDocument", mock.Anything, mock.MatchedBy(func(up service.Upload) bool {
			return up.FileName == "policy.pdf"
		})).Return(res, nil).Once()

		body, ct := document(t)
		req := httptest.NewRequest(http.MethodPost, "/policy/extract", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.PolicyExtraction
		json.NewDecoder(resp.Body).Decode(&result)
		require.NotNil(t, result.PolicyNumber)
		assert.Equal(t, "POL-123456", *result.PolicyNumber)
		mockSvc.AssertExpectations(t)
	})

	t.Run("extraction failure", func(t *testing.T) {
		mockSvc.On("ExtractPolicyDocument", mock.Anything, mock.Anything).
			Return(nil, ai.ErrMalformedResponse).Once()

		body, ct := document(t)
		req := httptest.NewRequest(http.MethodPost, "/policy/extract", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "EXTRACTION_FAILED", res.Error.Code)
	})

	t.Run("extraction service unavailable", func(t *testing.T) {
		mockSvc.On("ExtractPolicyDocument", mock.Anything, mock.Anything).
			Return(nil, ai.ErrUpstreamUnavailable).Once()

		body, ct := document(t)
		req := httptest.NewRequest(http.MethodPost, "/policy/extract", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
	})
}

func TestGetQuestionnaire(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Get("/claims/:id/questionnaire", GetQuestionnaire(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		view := &service.QuestionnaireView{
			ClaimID:     id,
			ClaimNumber: "CLM-100001",
			Status:      model.ClaimStatusSubmitted,
			Steps: []intake.Step{
				{Category: intake.CategorySafetyInformation, Title: "Safety Information"},
			},
		}
		mockSvc.On("GetQuestionnaire", mock.Anything, id).Return(view, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+id+"/questionnaire", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.QuestionnaireView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "CLM-100001", result.ClaimNumber)
		assert.Len(t, result.Steps, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("GetQuestionnaire", mock.Anything, id).Return(nil, service.ErrClaimNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+id+"/questionnaire", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAnswerQuestion(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Post("/claims/:id/answers", AnswerQuestion(mockSvc))

	claimID := uuid.New().String()
	questionID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc.On("AnswerQuestion", mock.Anything, claimID, questionID, "No").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/answers",
			jsonBody(t, map[string]string{"question_id": questionID, "answer": "No"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown question", func(t *testing.T) {
		mockSvc.On("AnswerQuestion", mock.Anything, claimID, questionID, "No").
			Return(service.ErrQuestionNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/answers",
			jsonBody(t, map[string]string{"question_id": questionID, "answer": "No"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "QUESTION_NOT_FOUND", res.Error.Code)
	})

	t.Run("blank answer", func(t *testing.T) {
		mockSvc.On("AnswerQuestion", mock.Anything, claimID, questionID, " ").
			Return(service.ErrAnswerRequired).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/answers",
			jsonBody(t, map[string]string{"question_id": questionID, "answer": " "}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestFinalizeClaim(t *testing.T) {
	mockSvc := new(serviceMocks.MockClaimService)
	app := fiber.New()
	app.Post("/claims/:id/finalize", FinalizeClaim(mockSvc))

	claimID := uuid.New().String()

	t.Run("multipart with answers and extra photo", func(t *testing.T) {
		sev := model.SeverityMedium
		assessed := &model.Claim{ID: claimID, Status: model.ClaimStatusAssessed, SeverityLevel: &sev}
		mockSvc.On("FinalizeClaim", mock.Anything, claimID,
			map[string]string{"q-1": "No"},
			mock.MatchedBy(func(ups []service.Upload) bool {
				return len(ups) == 1 && ups[0].FileName == "more.jpg"
			})).Return(assessed, nil).Once()

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("answers", `{"q-1":"No"}`)
		part, _ := writer.CreateFormFile("photos", "more.jpg")
		part.Write([]byte{0xff, 0xd8})
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Claim
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, model.ClaimStatusAssessed, result.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("json body", func(t *testing.T) {
		assessed := &model.Claim{ID: claimID, Status: model.ClaimStatusAssessed}
		mockSvc.On("FinalizeClaim", mock.Anything, claimID,
			map[string]string{"q-1": "Yes"}, mock.Anything).Return(assessed, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize",
			jsonBody(t, map[string]any{"answers": map[string]string{"q-1": "Yes"}}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("incomplete questionnaire", func(t *testing.T) {
		mockSvc.On("FinalizeClaim", mock.Anything, claimID, mock.Anything, mock.Anything).
			Return(nil, intake.ErrQuestionnaireIncomplete).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "QUESTIONNAIRE_INCOMPLETE", res.Error.Code)
	})

	t.Run("already assessed", func(t *testing.T) {
		mockSvc.On("FinalizeClaim", mock.Anything, claimID, mock.Anything, mock.Anything).
			Return(nil, service.ErrAlreadyAssessed).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("finalize already in flight", func(t *testing.T) {
		mockSvc.On("FinalizeClaim", mock.Anything, claimID, mock.Anything, mock.Anything).
			Return(nil, service.ErrFinalizeInFlight).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FINALIZE_IN_FLIGHT", res.Error.Code)
	})

	t.Run("assessment failure preserves answers", func(t *testing.T) {
		mockSvc.On("FinalizeClaim", mock.Anything, claimID, mock.Anything, mock.Anything).
			Return(nil, ai.ErrMalformedResponse).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ASSESSMENT_FAILED", res.Error.Code)
	})

	t.Run("assessment service unavailable", func(t *testing.T) {
		mockSvc.On("FinalizeClaim", mock.Anything, claimID, mock.Anything, mock.Anything).
			Return(nil, ai.ErrUpstreamUnavailable).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+claimID+"/finalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
	})
}

func TestLogin(t *testing.T) {
	sessions := service.NewSessionRegistry("open-sesame", time.Hour)
	app := fiber.New()
	app.Post("/login", Login(sessions))

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login",
			jsonBody(t, map[string]string{"access_code": "open-sesame"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var sess service.Session
		json.NewDecoder(resp.Body).Decode(&sess)
		assert.NotEmpty(t, sess.Token)
		assert.NoError(t, sessions.Validate(sess.Token))
	})

	t.Run("wrong code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login",
			jsonBody(t, map[string]string{"access_code": "guess"}))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "BAD_ACCESS_CODE", res.Error.Code)
	})
}

func TestListClaims(t *testing.T) {
	mockSvc := new(serviceMocks.MockDashboardService)
	app := fiber.New()
	app.Get("/claims", ListClaims(mockSvc))

	t.Run("success", func(t *testing.T) {
		res := &service.ClaimListResult{
			Items: []model.Claim{{ID: uuid.New().String(), ClaimNumber: "CLM-100001"}},
			Total: 1,
		}
		mockSvc.On("ListClaims", mock.Anything, 10, 0).Return(res, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.ClaimListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/claims?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_LIMIT", res.Error.Code)
	})
}

func TestGetClaim(t *testing.T) {
	mockSvc := new(serviceMocks.MockDashboardService)
	app := fiber.New()
	app.Get("/claims/:id", GetClaim(mockSvc))

	t.Run("fraud signal is surfaced", func(t *testing.T) {
		id := uuid.New().String()
		sev := model.SeverityFraudulent
		routing := model.RoutingFraudInvestigation
		detail := &service.ClaimDetail{
			Claim: &model.Claim{
				ID: id, Status: model.ClaimStatusAssessed,
				SeverityLevel: &sev, RoutingDecision: &routing,
			},
			FraudSignal: true,
		}
		mockSvc.On("GetClaim", mock.Anything, id).Return(detail, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.ClaimDetail
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.FraudSignal)
		assert.Equal(t, model.SeverityFraudulent, *result.Claim.SeverityLevel)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("GetClaim", mock.Anything, id).Return(nil, service.ErrClaimNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRefinalize(t *testing.T) {
	mockSvc := new(serviceMocks.MockDashboardService)
	app := fiber.New()
	app.Post("/claims/:id/refinalize", Refinalize(mockSvc))

	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		assessed := &model.Claim{ID: id, Status: model.ClaimStatusAssessed}
		mockSvc.On("Refinalize", mock.Anything, id).Return(assessed, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+id+"/refinalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("already assessed", func(t *testing.T) {
		mockSvc.On("Refinalize", mock.Anything, id).Return(nil, service.ErrAlreadyAssessed).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+id+"/refinalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ALREADY_ASSESSED", res.Error.Code)
	})

	t.Run("assessment service unavailable", func(t *testing.T) {
		mockSvc.On("Refinalize", mock.Anything, id).Return(nil, ai.ErrUpstreamUnavailable).Once()

		req := httptest.NewRequest(http.MethodPost, "/claims/"+id+"/refinalize", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UPSTREAM_ERROR", res.Error.Code)
	})
}

func TestExportClaimPDF(t *testing.T) {
	mockSvc := new(serviceMocks.MockDashboardService)
	app := fiber.New()
	app.Get("/claims/:id/report.pdf", ExportClaimPDF(mockSvc))

	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ExportPDF", mock.Anything, id).Return([]byte("%PDF-1.7"), nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+id+"/report.pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, []byte("%PDF-1.7"), body)
		mockSvc.AssertExpectations(t)
	})

	t.Run("render failure", func(t *testing.T) {
		mockSvc.On("ExportPDF", mock.Anything, id).Return(nil, errors.New("chrome not found")).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+id+"/report.pdf", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "EXPORT_FAILED", res.Error.Code)
	})
}

func TestDownloadClaimFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockDashboardService)
	app := fiber.New()
	app.Get("/claims/:id/files/:fileID/download", DownloadClaimFile(mockSvc))

	claimID := uuid.New().String()
	fileID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		content := []byte{0xff, 0xd8, 0xff, 0x00}
		mockSvc.On("DownloadFile", mock.Anything, claimID, fileID).
			Return(io.NopCloser(bytes.NewReader(content)),
				storage.ObjectInfo{Size: int64(len(content)), ContentType: "image/jpeg"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+claimID+"/files/"+fileID+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get(fiber.HeaderContentType))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, content, body)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("DownloadFile", mock.Anything, claimID, fileID).
			Return(nil, storage.ObjectInfo{}, service.ErrFileNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/claims/"+claimID+"/files/"+fileID+"/download", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGuardedRoutes(t *testing.T) {
	sessions := service.NewSessionRegistry("open-sesame", time.Hour)
	mockSvc := new(serviceMocks.MockDashboardService)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	guarded := app.Group("/insurer", middleware.RequireSession(sessions))
	guarded.Get("/claims", ListClaims(mockSvc))

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insurer/claims", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHORIZED", res.Error.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		sess, err := sessions.Login("open-sesame")
		require.NoError(t, err)
		mockSvc.On("ListClaims", mock.Anything, 20, 0).
			Return(&service.ClaimListResult{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/insurer/claims", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+sess.Token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
