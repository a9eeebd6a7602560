package ingest

import (
	"errors"
	"fmt"

	"stylist/internal/domain"
)

// Event is the outcome of one remote call that drives a stage transition.
type Event int

const (
	EventUploaded Event = iota
	EventAnalyzed
	EventRecordSaved
	EventIndexed
	EventFailed
)

func (e Event) String() string {
	switch e {
	case EventUploaded:
		return "uploaded"
	case EventAnalyzed:
		return "analyzed"
	case EventRecordSaved:
		return "record-saved"
	case EventIndexed:
		return "indexed"
	case EventFailed:
		return "failed"
	}
	return "unknown"
}

// ErrInvalidTransition is returned for events the current stage does not accept.
var ErrInvalidTransition = errors.New("invalid stage transition")

var forward = map[domain.Stage]struct {
	event Event
	next  domain.Stage
}{
	domain.StageUploading:        {EventUploaded, domain.StageAnalyzing},
	domain.StageAnalyzing:        {EventAnalyzed, domain.StagePersistingRecord},
	domain.StagePersistingRecord: {EventRecordSaved, domain.StagePersistingIndex},
	domain.StagePersistingIndex:  {EventIndexed, domain.StageComplete},
}

// Transition is the ingestion state machine. Stages only advance in order;
// any non-terminal stage may fail; terminal stages accept nothing. On error
// the input stage is returned unchanged.
func Transition(s domain.Stage, e Event) (domain.Stage, error) {
	if s.Terminal() {
		return s, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, s)
	}
	if e == EventFailed {
		return domain.StageError, nil
	}
	step, ok := forward[s]
	if !ok || step.event != e {
		return s, fmt.Errorf("%w: %s does not accept %s", ErrInvalidTransition, s, e)
	}
	return step.next, nil
}
