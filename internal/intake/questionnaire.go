package intake

import (
	"errors"
	"fmt"
	"strings"

	"fnolapi/internal/model"
)

var (
	// ErrStepIncomplete blocks a forward transition while a required
	// question on the current step has no answer.
	ErrStepIncomplete = errors.New("current step has unanswered required questions")

	// ErrUnknownQuestion means an answer referenced a question ID that is
	// not part of this questionnaire.
	ErrUnknownQuestion = errors.New("unknown question id")

	// ErrNoSuchStep means a step index outside the derived sequence.
	ErrNoSuchStep = errors.New("no such step")
)

// Step is one page of the questionnaire wizard. Exactly one step per
// non-empty category, plus a final photos step that is always present and
// never gates anything.
type Step struct {
	Category  Category              `json:"category,omitempty"`
	Title     string                `json:"title"`
	Questions []model.ClaimQuestion `json:"questions,omitempty"`
	Photos    bool                  `json:"photos,omitempty"`
}

// Controller drives the categorized follow-up questionnaire for one claim.
// It derives the step sequence from the question set once, at construction,
// and then tracks position, draft answers and per-step attempt marks.
// Answers are keyed by question ID, never by question text.
//
// Controller is not safe for concurrent use; the session layer serializes
// access per claim.
type Controller struct {
	steps     []Step
	byID      map[string]*model.ClaimQuestion
	answers   map[string]string
	photos    []string
	current   int
	attempted map[int]bool
}

// NewController builds the step sequence for the given question set.
// additional_images questions are not shown as category questions; they are
// represented by the photos step.
func NewController(questions []model.ClaimQuestion) *Controller {
	byCategory := make(map[Category][]model.ClaimQuestion)
	byID := make(map[string]*model.ClaimQuestion, len(questions))
	answers := make(map[string]string)

	for i := range questions {
		q := questions[i]
		byID[q.ID] = &questions[i]
		if q.Answer != nil {
			answers[q.ID] = *q.Answer
		}
		if isPhotoRequest(q) {
			continue
		}
		cat := Classify(q.QuestionType)
		byCategory[cat] = append(byCategory[cat], q)
	}

	var steps []Step
	for _, cat := range categoryOrder {
		qs := byCategory[cat]
		if len(qs) == 0 {
			continue
		}
		steps = append(steps, Step{Category: cat, Title: cat.Title(), Questions: qs})
	}
	steps = append(steps, Step{Title: "Additional Photos", Photos: true})

	return &Controller{
		steps:     steps,
		byID:      byID,
		answers:   answers,
		attempted: make(map[int]bool),
	}
}

// Steps returns the derived step sequence.
func (c *Controller) Steps() []Step {
	return c.steps
}

// Current returns the index of the active step.
func (c *Controller) Current() int {
	return c.current
}

// Attempted reports whether the step has been left or validated at least
// once, for error highlighting.
func (c *Controller) Attempted(i int) bool {
	return c.attempted[i]
}

// SetAnswer records a draft answer for the given question.
func (c *Controller) SetAnswer(questionID, answer string) error {
	if _, ok := c.byID[questionID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	c.answers[questionID] = answer
	return nil
}

// Answer returns the draft answer for a question, empty if none.
func (c *Controller) Answer(questionID string) string {
	return c.answers[questionID]
}

// Answers returns the draft answers for every answered question, keyed by
// question ID. Blank answers are omitted.
func (c *Controller) Answers() map[string]string {
	out := make(map[string]string, len(c.answers))
	for id, a := range c.answers {
		if strings.TrimSpace(a) != "" {
			out[id] = a
		}
	}
	return out
}

// AddPhotos appends extra photo names for the photos step.
func (c *Controller) AddPhotos(names ...string) {
	c.photos = append(c.photos, names...)
}

// Photos returns the extra photo names collected so far.
func (c *Controller) Photos() []string {
	return c.photos
}

// StepComplete reports whether every required question on the step has a
// non-empty trimmed answer. The photos step is unconditionally complete.
func (c *Controller) StepComplete(i int) bool {
	if i < 0 || i >= len(c.steps) {
		return false
	}
	step := c.steps[i]
	if step.Photos {
		return true
	}
	for _, q := range step.Questions {
		if !q.IsRequired {
			continue
		}
		if strings.TrimSpace(c.answers[q.ID]) == "" {
			return false
		}
	}
	return true
}

// Next advances one step. The transition is blocked, and the step marked
// attempted, while the current step is incomplete.
func (c *Controller) Next() error {
	c.attempted[c.current] = true
	if !c.StepComplete(c.current) {
		return ErrStepIncomplete
	}
	if c.current < len(c.steps)-1 {
		c.current++
	}
	return nil
}

// Back retreats one step unconditionally.
func (c *Controller) Back() {
	if c.current > 0 {
		c.current--
	}
}

// SelectStep jumps directly to a step. The step being left is marked
// attempted regardless of completeness.
func (c *Controller) SelectStep(i int) error {
	if i < 0 || i >= len(c.steps) {
		return fmt.Errorf("%w: %d", ErrNoSuchStep, i)
	}
	c.attempted[c.current] = true
	c.current = i
	return nil
}

// ValidateAll re-validates every category step and returns the categories
// that still have unanswered required questions. The photos step never
// appears here.
func (c *Controller) ValidateAll() []Category {
	var incomplete []Category
	for i, step := range c.steps {
		if step.Photos {
			continue
		}
		c.attempted[i] = true
		if !c.StepComplete(i) {
			incomplete = append(incomplete, step.Category)
		}
	}
	return incomplete
}

// CanSubmit reports whether every category step is fully answered. The
// photos step is excluded from the gate.
func (c *Controller) CanSubmit() bool {
	return len(c.ValidateAll()) == 0
}
