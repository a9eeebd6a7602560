package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylist/internal/domain"
)

func TestTransitionHappyPath(t *testing.T) {
	s := domain.StageUploading
	var err error
	for _, e := range []Event{EventUploaded, EventAnalyzed, EventRecordSaved, EventIndexed} {
		s, err = Transition(s, e)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StageComplete, s)
}

func TestTransitionFailureFromAnyActiveStage(t *testing.T) {
	for _, s := range []domain.Stage{domain.StageUploading, domain.StageAnalyzing, domain.StagePersistingRecord, domain.StagePersistingIndex} {
		next, err := Transition(s, EventFailed)
		require.NoError(t, err)
		assert.Equal(t, domain.StageError, next)
	}
}

func TestTransitionRejectsSkipsAndTerminalEvents(t *testing.T) {
	next, err := Transition(domain.StageUploading, EventRecordSaved)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.StageUploading, next)

	next, err = Transition(domain.StageAnalyzing, EventUploaded)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.StageAnalyzing, next)

	for _, s := range []domain.Stage{domain.StageComplete, domain.StageError} {
		for _, e := range []Event{EventUploaded, EventIndexed, EventFailed} {
			next, err := Transition(s, e)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, s, next)
		}
	}
}
