package matching

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"stylist/internal/domain"
)

var (
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrEmptyWardrobe = errors.New("no matching items found in your wardrobe, try uploading more clothes")
	ErrQueryInFlight = errors.New("an outfit search is already running")
	ErrNoSelection   = errors.New("scoring returned no outfit")
)

// Remote is the part of the stylist service used for matching.
type Remote interface {
	SearchCandidates(ctx context.Context, query string) ([]domain.ClothingItem, error)
	ExtractPreferences(ctx context.Context, query string) (domain.StylePreferences, error)
	ScoreOutfit(ctx context.Context, items []domain.ClothingItem, prefs domain.StylePreferences) (domain.MatchResult, error)
}

// Phase is the step a query is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseScoring
)

// Label is the progress text shown while the phase runs.
func (p Phase) Label() string {
	switch p {
	case PhaseSearching:
		return "Searching your wardrobe..."
	case PhaseScoring:
		return "Finding the perfect outfit..."
	}
	return ""
}

// Update is delivered to subscribers when the phase or result changes.
// Result is set only on success, Err only on failure.
type Update struct {
	Query  string
	Phase  Phase
	Result *domain.MatchResult
	Err    error
}

// Orchestrator runs one outfit query at a time and keeps the latest result.
// A failed query leaves the previous result in place.
type Orchestrator struct {
	remote Remote
	logger *slog.Logger

	mu      sync.Mutex
	phase   Phase
	result  *domain.MatchResult
	subs    map[int]func(Update)
	nextSub int
}

func NewOrchestrator(remote Remote, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{remote: remote, logger: logger, subs: map[int]func(Update){}}
}

// Subscribe registers fn for every Update.
func (o *Orchestrator) Subscribe(fn func(Update)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

// Result returns the last successful match.
func (o *Orchestrator) Result() (domain.MatchResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return domain.MatchResult{}, false
	}
	return *o.result, true
}

// Phase returns the current phase; PhaseIdle when nothing is running.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Find searches the wardrobe and extracts preferences concurrently, then
// scores the candidates. Both lookups always run to completion; if either
// fails, no scoring call is made.
func (o *Orchestrator) Find(ctx context.Context, query string) (domain.MatchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.MatchResult{}, ErrEmptyQuery
	}

	o.mu.Lock()
	if o.phase != PhaseIdle {
		o.mu.Unlock()
		return domain.MatchResult{}, ErrQueryInFlight
	}
	o.phase = PhaseSearching
	o.mu.Unlock()
	o.publish(Update{Query: query, Phase: PhaseSearching})

	logger := o.logger.With("query", query)
	res, err := o.run(ctx, query, logger)

	o.mu.Lock()
	o.phase = PhaseIdle
	if err == nil {
		o.result = &res
	}
	o.mu.Unlock()

	if err != nil {
		logger.Warn("outfit search failed", "error", err)
		o.publish(Update{Query: query, Phase: PhaseIdle, Err: err})
		return domain.MatchResult{}, err
	}
	logger.Info("outfit found", "score", res.Selection.Score, "combinations", res.Combinations)
	published := res
	o.publish(Update{Query: query, Phase: PhaseIdle, Result: &published})
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, query string, logger *slog.Logger) (domain.MatchResult, error) {
	var (
		g          errgroup.Group
		candidates []domain.ClothingItem
		prefs      domain.StylePreferences
	)
	g.Go(func() (err error) {
		candidates, err = o.remote.SearchCandidates(ctx, query)
		return err
	})
	g.Go(func() (err error) {
		prefs, err = o.remote.ExtractPreferences(ctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MatchResult{}, err
	}
	if len(candidates) == 0 {
		return domain.MatchResult{}, ErrEmptyWardrobe
	}
	logger.Debug("candidates found", "count", len(candidates),
		"occasion", deref(prefs.Occasion), "weather", deref(prefs.Weather), "style_pref", deref(prefs.StylePref))

	o.setPhase(PhaseScoring)
	o.publish(Update{Query: query, Phase: PhaseScoring})

	res, err := o.remote.ScoreOutfit(ctx, candidates, prefs)
	if err != nil {
		return domain.MatchResult{}, err
	}
	if res.Selection.Empty() {
		return domain.MatchResult{}, ErrNoSelection
	}
	return res, nil
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = p
}

func (o *Orchestrator) publish(u Update) {
	o.mu.Lock()
	subs := make([]func(Update), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()
	for _, fn := range subs {
		fn(u)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
