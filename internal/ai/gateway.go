package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fnolapi/internal/model"
)

var (
	// ErrNoPhotos is returned when an initial assessment is requested
	// without any damage photo. The model cannot triage what it cannot see.
	ErrNoPhotos = errors.New("at least one damage photo is required")

	// ErrMalformedResponse marks a response that arrived but did not match
	// the expected schema even after retries. Distinct from transport
	// failures so callers can tell "gateway down" from "gateway confused".
	ErrMalformedResponse = errors.New("ai response did not match the expected schema")

	// ErrUpstreamUnavailable marks a transport-class failure (timeout,
	// rate limit, server error, connection failure) that persisted through
	// the retry budget. The request never produced a usable response.
	ErrUpstreamUnavailable = errors.New("ai gateway is unavailable")
)

const maxAttempts = 3

// Gateway runs the three model-backed operations of the intake flow:
// initial assessment, finalization, and policy document extraction.
type Gateway struct {
	caller  Caller
	timeout time.Duration
}

func NewGateway(caller Caller, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{caller: caller, timeout: timeout}
}

// AssessInitial analyzes damage photos plus incident facts and produces the
// preliminary severity, the authenticity checks and the follow-up questions.
func (g *Gateway) AssessInitial(ctx context.Context, claim ClaimContext, photos []Attachment) (*model.InitialAssessment, error) {
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	var out model.InitialAssessment
	p := Prompt{
		System:      initialSystemPrompt,
		Text:        buildInitialPrompt(claim),
		Attachments: photos,
	}
	if err := g.run(ctx, "initial assessment", p, &out, func() error {
		return validateInitial(&out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Finalize produces the answer-informed final verdict. It fully replaces any
// previous final assessment; re-running with the same inputs is safe.
func (g *Gateway) Finalize(ctx context.Context, claim ClaimContext, initial *model.InitialAssessment, answers []QuestionAnswer, extraPhotos []Attachment) (*model.FinalAssessment, error) {
	var out model.FinalAssessment
	p := Prompt{
		System:      finalSystemPrompt,
		Text:        buildFinalPrompt(claim, initial, answers, len(extraPhotos) > 0),
		Attachments: extraPhotos,
	}
	if err := g.run(ctx, "final assessment", p, &out, func() error {
		return validateFinal(&out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractPolicyDetails reads an uploaded policy document (image or PDF) and
// returns whatever fields the model could find. Extraction is best effort;
// unknown fields stay nil.
func (g *Gateway) ExtractPolicyDetails(ctx context.Context, doc Attachment) (*model.PolicyExtraction, error) {
	var out model.PolicyExtraction
	p := Prompt{
		System:      extractionSystemPrompt,
		Text:        extractionUserPrompt,
		Attachments: []Attachment{doc},
	}
	if err := g.run(ctx, "policy extraction", p, &out, func() error {
		return validateExtraction(&out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

// run executes one staged call with up to three attempts. Transient transport
// failures back off and retry; schema failures retry with feedback appended to
// the prompt; whatever still fails after the last attempt is reported as
// either a transport error or ErrMalformedResponse.
func (g *Gateway) run(ctx context.Context, stage string, p Prompt, out any, validate func() error) error {
	feedback := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := p
		prompt.Text = p.Text + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			prompt.Text += "\n\n" + feedback
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		raw, err := g.caller.GenerateJSON(attemptCtx, prompt)
		cancel()
		if err != nil {
			class := classifyTransportError(err)
			if class == failureTimeout || class == failureRateLimit || class == failureServer {
				if attempt < maxAttempts {
					time.Sleep(backoffDelay(attempt))
					continue
				}
			}
			return fmt.Errorf("%s transport failure: %s: %w", stage, err, ErrUpstreamUnavailable)
		}

		clean := stripCodeFences(raw)
		if clean == "" {
			if attempt < maxAttempts {
				feedback = "Your previous response was empty. Respond with valid JSON."
				continue
			}
			return fmt.Errorf("%s: empty response: %w", stage, ErrMalformedResponse)
		}
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			if attempt < maxAttempts {
				feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
				continue
			}
			return fmt.Errorf("%s: %s: %w", stage, err, ErrMalformedResponse)
		}
		if err := validate(); err != nil {
			if attempt < maxAttempts {
				feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
				continue
			}
			return fmt.Errorf("%s: %s: %w", stage, err, ErrMalformedResponse)
		}
		return nil
	}
	return fmt.Errorf("%s failed after retries: %w", stage, ErrMalformedResponse)
}

var initialSeverities = map[model.SeverityLevel]bool{
	model.SeverityLow:      true,
	model.SeverityMedium:   true,
	model.SeverityHigh:     true,
	model.SeverityCritical: true,
}

var finalSeverities = map[model.SeverityLevel]bool{
	model.SeverityLow:        true,
	model.SeverityMedium:     true,
	model.SeverityHigh:       true,
	model.SeverityCritical:   true,
	model.SeverityFraudulent: true,
}

var routingDecisions = map[model.RoutingDecision]bool{
	model.RoutingStraightThrough:    true,
	model.RoutingJuniorAdjuster:     true,
	model.RoutingSeniorAdjuster:     true,
	model.RoutingSpecialist:         true,
	model.RoutingFraudInvestigation: true,
}

var questionTypes = map[string]bool{
	model.QuestionTypeDamageDetails:    true,
	model.QuestionTypeIncidentDetails:  true,
	model.QuestionTypeCoverage:         true,
	model.QuestionTypeSafety:           true,
	model.QuestionTypeAdditionalImages: true,
}

func validateConfidence(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s %v out of range [0,1]", name, v)
	}
	return nil
}

func validateInitial(a *model.InitialAssessment) error {
	if !initialSeverities[a.InitialSeverity] {
		return fmt.Errorf("invalid initial_severity %q", a.InitialSeverity)
	}
	if err := validateConfidence("confidence_score", a.ConfidenceScore); err != nil {
		return err
	}
	if a.VisibleDamageAnalysis == nil {
		return errors.New("visible_damage_analysis is required")
	}
	if len(a.FollowUpQuestions) == 0 {
		return errors.New("follow_up_questions must not be empty")
	}
	for i, q := range a.FollowUpQuestions {
		if q.Question == "" {
			return fmt.Errorf("follow_up_questions[%d].question is empty", i)
		}
		if !questionTypes[q.QuestionType] {
			return fmt.Errorf("follow_up_questions[%d] has invalid question_type %q", i, q.QuestionType)
		}
	}
	return nil
}

func validateFinal(a *model.FinalAssessment) error {
	if !finalSeverities[a.SeverityLevel] {
		return fmt.Errorf("invalid severity_level %q", a.SeverityLevel)
	}
	if !routingDecisions[a.RoutingDecision] {
		return fmt.Errorf("invalid routing_decision %q", a.RoutingDecision)
	}
	if err := validateConfidence("confidence_score", a.ConfidenceScore); err != nil {
		return err
	}
	if a.DamageAssessment == nil {
		return errors.New("damage_assessment is required")
	}
	if a.FraudIndicators == nil {
		return errors.New("fraud_indicators is required")
	}
	return nil
}

func validateExtraction(e *model.PolicyExtraction) error {
	return validateConfidence("extraction_confidence", e.ExtractionConfidence)
}
