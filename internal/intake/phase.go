package intake

import (
	"errors"
	"fmt"
	"sync"
)

// Phase is the intake lifecycle of one claim session. Every transition goes
// through Session, which enforces the transition table below; nothing else
// mutates the phase.
type Phase string

const (
	PhaseValidating      Phase = "validating"
	PhaseUploading       Phase = "uploading"
	PhaseAwaitingInitial Phase = "awaiting_initial_assessment"
	PhaseQuestionnaire   Phase = "questionnaire"
	PhaseFinalizing      Phase = "finalizing"
	PhaseCompleted       Phase = "completed"
	PhaseFailed          Phase = "failed"
)

var (
	// ErrInvalidTransition marks a phase change the table does not allow.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrOperationInFlight rejects a second mutating operation while one
	// is already running for the session.
	ErrOperationInFlight = errors.New("another operation is in flight for this claim")

	// ErrQuestionnaireIncomplete blocks finalization while category steps
	// still have unanswered required questions.
	ErrQuestionnaireIncomplete = errors.New("questionnaire has unanswered required questions")
)

// transitions lists the allowed successor phases.
var transitions = map[Phase][]Phase{
	PhaseValidating:      {PhaseUploading, PhaseFailed},
	PhaseUploading:       {PhaseAwaitingInitial, PhaseFailed},
	PhaseAwaitingInitial: {PhaseQuestionnaire, PhaseFailed},
	PhaseQuestionnaire:   {PhaseFinalizing},
	PhaseFinalizing:      {PhaseCompleted, PhaseQuestionnaire},
	PhaseCompleted:       {},
	PhaseFailed:          {PhaseValidating},
}

// Session is the per-claim intake state. It holds the current phase, the
// questionnaire controller once questions exist, and the single in-flight
// operation guard. All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	phase      Phase
	failReason string
	inFlight   bool
	controller *Controller
}

// NewSession starts a session in the validating phase.
func NewSession() *Session {
	return &Session{phase: PhaseValidating}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// FailureReason returns the reason recorded by the last Fail call, empty
// unless the session is in the failed phase.
func (s *Session) FailureReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failReason
}

// Controller returns the questionnaire controller, nil before the
// questionnaire phase is reached.
func (s *Session) Controller() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller
}

// Begin claims the session's single in-flight operation slot. Callers must
// pair it with End.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrOperationInFlight
	}
	s.inFlight = true
	return nil
}

// End releases the in-flight slot.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

func (s *Session) transition(to Phase) error {
	for _, allowed := range transitions[s.phase] {
		if allowed == to {
			s.phase = to
			if to != PhaseFailed {
				s.failReason = ""
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, to)
}

// StartUploading moves validating -> uploading once the policy gate passed.
func (s *Session) StartUploading() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(PhaseUploading)
}

// StartAssessment moves uploading -> awaiting_initial_assessment.
func (s *Session) StartAssessment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(PhaseAwaitingInitial)
}

// BeginQuestionnaire installs the controller built from the persisted
// question set and enters the questionnaire phase.
func (s *Session) BeginQuestionnaire(c *Controller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(PhaseQuestionnaire); err != nil {
		return err
	}
	s.controller = c
	return nil
}

// StartFinalizing moves questionnaire -> finalizing. The submit gate is
// enforced here: every category step must be fully answered first.
func (s *Session) StartFinalizing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseQuestionnaire && s.controller != nil && !s.controller.CanSubmit() {
		return ErrQuestionnaireIncomplete
	}
	return s.transition(PhaseFinalizing)
}

// Complete moves finalizing -> completed.
func (s *Session) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(PhaseCompleted)
}

// FinalizeFailed returns a failed finalization to the questionnaire phase.
// The controller, and with it every collected answer, is preserved.
func (s *Session) FinalizeFailed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(PhaseQuestionnaire)
}

// Fail records a terminal intake failure with its reason. Only reachable
// before the questionnaire exists; later failures fall back to the
// questionnaire instead so answers survive.
func (s *Session) Fail(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(PhaseFailed); err != nil {
		return err
	}
	s.failReason = reason
	return nil
}

// Restart returns a failed session to the validating phase for a fresh
// attempt.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(PhaseValidating); err != nil {
		return err
	}
	s.controller = nil
	return nil
}
