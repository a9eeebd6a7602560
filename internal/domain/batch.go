package domain

import "fmt"

// BatchOutcome classifies a finished upload batch.
type BatchOutcome int

const (
	BatchAllSucceeded BatchOutcome = iota
	BatchPartial
	BatchAllFailed
)

func (o BatchOutcome) String() string {
	switch o {
	case BatchAllSucceeded:
		return "all-succeeded"
	case BatchPartial:
		return "partial"
	case BatchAllFailed:
		return "all-failed"
	}
	return "unknown"
}

// BatchSummary is emitted once per finished batch.
type BatchSummary struct {
	ID        string
	Total     int
	Succeeded int
}

func (s BatchSummary) Failed() int { return s.Total - s.Succeeded }

func (s BatchSummary) Outcome() BatchOutcome {
	switch {
	case s.Succeeded == s.Total:
		return BatchAllSucceeded
	case s.Succeeded > 0:
		return BatchPartial
	default:
		return BatchAllFailed
	}
}

// Message is the one-line notification shown when the batch finishes.
func (s BatchSummary) Message() string {
	switch s.Outcome() {
	case BatchAllSucceeded:
		return fmt.Sprintf("Successfully added %d items to your wardrobe!", s.Succeeded)
	case BatchPartial:
		return fmt.Sprintf("Added %d of %d items. Some failed.", s.Succeeded, s.Total)
	default:
		return "Failed to add items to your wardrobe."
	}
}
