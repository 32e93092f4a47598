package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnolapi/internal/model"
)

func TestSessionHappyPath(t *testing.T) {
	s := NewSession()
	assert.Equal(t, PhaseValidating, s.Phase())

	require.NoError(t, s.StartUploading())
	require.NoError(t, s.StartAssessment())

	ctrl := NewController([]model.ClaimQuestion{
		question("q1", "Any injuries?", "safety", true),
	})
	require.NoError(t, s.BeginQuestionnaire(ctrl))
	assert.Equal(t, PhaseQuestionnaire, s.Phase())
	assert.Same(t, ctrl, s.Controller())

	require.NoError(t, ctrl.SetAnswer("q1", "None"))
	require.NoError(t, s.StartFinalizing())
	require.NoError(t, s.Complete())
	assert.Equal(t, PhaseCompleted, s.Phase())
}

func TestSessionTransitionTable(t *testing.T) {
	t.Run("cannot skip phases", func(t *testing.T) {
		s := NewSession()
		assert.ErrorIs(t, s.StartAssessment(), ErrInvalidTransition)
		assert.ErrorIs(t, s.Complete(), ErrInvalidTransition)
		assert.ErrorIs(t, s.StartFinalizing(), ErrInvalidTransition)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.StartUploading())
		require.NoError(t, s.StartAssessment())
		require.NoError(t, s.BeginQuestionnaire(NewController(nil)))
		require.NoError(t, s.StartFinalizing())
		require.NoError(t, s.Complete())

		assert.ErrorIs(t, s.StartUploading(), ErrInvalidTransition)
		assert.ErrorIs(t, s.Restart(), ErrInvalidTransition)
	})

	t.Run("early failure goes to failed and can restart", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.StartUploading())
		require.NoError(t, s.StartAssessment())
		require.NoError(t, s.Fail("assessment transport failure"))
		assert.Equal(t, PhaseFailed, s.Phase())
		assert.Equal(t, "assessment transport failure", s.FailureReason())

		require.NoError(t, s.Restart())
		assert.Equal(t, PhaseValidating, s.Phase())
		assert.Empty(t, s.FailureReason())
		assert.Nil(t, s.Controller())
	})

	t.Run("failed finalization returns to questionnaire with answers intact", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.StartUploading())
		require.NoError(t, s.StartAssessment())

		ctrl := NewController([]model.ClaimQuestion{
			question("q1", "Any injuries?", "safety", true),
		})
		require.NoError(t, s.BeginQuestionnaire(ctrl))
		require.NoError(t, ctrl.SetAnswer("q1", "None"))
		require.NoError(t, s.StartFinalizing())

		require.NoError(t, s.FinalizeFailed())
		assert.Equal(t, PhaseQuestionnaire, s.Phase())
		require.NotNil(t, s.Controller())
		assert.Equal(t, "None", s.Controller().Answer("q1"))

		// Questionnaire failures never land in the failed phase.
		assert.ErrorIs(t, s.Fail("boom"), ErrInvalidTransition)
	})

	t.Run("finalizing is gated on a complete questionnaire", func(t *testing.T) {
		s := NewSession()
		require.NoError(t, s.StartUploading())
		require.NoError(t, s.StartAssessment())

		ctrl := NewController([]model.ClaimQuestion{
			question("q1", "Any injuries?", "safety", true),
		})
		require.NoError(t, s.BeginQuestionnaire(ctrl))

		assert.ErrorIs(t, s.StartFinalizing(), ErrQuestionnaireIncomplete)
		assert.Equal(t, PhaseQuestionnaire, s.Phase())

		require.NoError(t, ctrl.SetAnswer("q1", "None"))
		require.NoError(t, s.StartFinalizing())
	})
}

func TestSessionInFlightGuard(t *testing.T) {
	s := NewSession()

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), ErrOperationInFlight)

	s.End()
	require.NoError(t, s.Begin())
	s.End()
}
