package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stylist/internal/domain"
)

// DefaultGracePeriod is how long finished entries stay visible.
const DefaultGracePeriod = 3 * time.Second

// ErrBatchInProgress is returned when a batch is submitted while another runs.
var ErrBatchInProgress = errors.New("a batch is already being processed")

// UpdateKind says what changed in a controller Update.
type UpdateKind int

const (
	UpdateEntry UpdateKind = iota
	UpdateItemAdded
	UpdateFinished
	UpdateCleared
)

// Update is delivered to subscribers for every change to batch state.
type Update struct {
	Kind    UpdateKind
	BatchID string
	Index   int
	Entry   domain.ProcessingEntry
	Item    domain.ClothingItem
	Summary domain.BatchSummary
}

// Snapshot is a copy of the controller's current batch state.
type Snapshot struct {
	BatchID    string
	Processing bool
	Entries    []domain.ProcessingEntry
}

// ItemSink receives items that completed ingestion.
type ItemSink interface {
	Add(item domain.ClothingItem)
}

// Controller owns one batch of files at a time and runs their pipelines
// strictly one after another.
type Controller struct {
	pipeline *Pipeline
	sink     ItemSink
	grace    time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	batchID    string
	processing bool
	entries    []domain.ProcessingEntry
	clearTimer *time.Timer
	subs       map[int]func(Update)
	nextSub    int
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithGracePeriod sets how long finished entries are kept before clearing.
func WithGracePeriod(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d < 0 {
			d = 0
		}
		c.grace = d
	}
}

// WithItemSink registers where completed items are added.
func WithItemSink(sink ItemSink) ControllerOption {
	return func(c *Controller) { c.sink = sink }
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewController(pipeline *Pipeline, opts ...ControllerOption) *Controller {
	c := &Controller{
		pipeline: pipeline,
		grace:    DefaultGracePeriod,
		logger:   slog.New(slog.DiscardHandler),
		subs:     map[int]func(Update){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn for every Update. Callbacks run on the goroutine
// that caused the change and must not call back into Submit.
func (c *Controller) Subscribe(fn func(Update)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Snapshot returns a copy of the current batch state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		BatchID:    c.batchID,
		Processing: c.processing,
		Entries:    append([]domain.ProcessingEntry(nil), c.entries...),
	}
}

// Processing reports whether a batch is in flight.
func (c *Controller) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// Submit runs a batch to completion and returns its summary. An empty batch
// is a no-op. Per-file failures are recorded on the file's entry and never
// stop the batch; the returned error is only ErrBatchInProgress.
func (c *Controller) Submit(ctx context.Context, sources []Source) (domain.BatchSummary, error) {
	if len(sources) == 0 {
		return domain.BatchSummary{}, nil
	}

	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return domain.BatchSummary{}, ErrBatchInProgress
	}
	if c.clearTimer != nil {
		c.clearTimer.Stop()
		c.clearTimer = nil
	}
	id := uuid.NewString()
	c.batchID = id
	c.processing = true
	c.entries = make([]domain.ProcessingEntry, len(sources))
	for i, src := range sources {
		c.entries[i] = domain.ProcessingEntry{Name: src.Name, Stage: domain.StageUploading}
	}
	initial := append([]domain.ProcessingEntry(nil), c.entries...)
	c.mu.Unlock()

	logger := c.logger.With("batch_id", id)
	logger.Info("batch started", "files", len(sources))
	for i, e := range initial {
		c.publish(Update{Kind: UpdateEntry, BatchID: id, Index: i, Entry: e})
	}

	summary := domain.BatchSummary{ID: id, Total: len(sources)}
	for i, src := range sources {
		res := c.runOne(ctx, id, i, src)
		if !res.OK() {
			continue
		}
		summary.Succeeded++
		if c.sink != nil {
			c.sink.Add(res.Item)
		}
		c.publish(Update{Kind: UpdateItemAdded, BatchID: id, Index: i, Item: res.Item})
	}

	c.mu.Lock()
	c.processing = false
	c.clearTimer = time.AfterFunc(c.grace, func() { c.clear(id) })
	c.mu.Unlock()

	logger.Info("batch finished", "outcome", summary.Outcome(), "succeeded", summary.Succeeded, "failed", summary.Failed())
	c.publish(Update{Kind: UpdateFinished, BatchID: id, Summary: summary})
	return summary, nil
}

// runOne keeps a single file's failure, panics included, inside its entry.
func (c *Controller) runOne(ctx context.Context, id string, index int, src Source) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("processing %s: %v", src.Name, r)
			c.setStage(id, index, domain.StageError, err)
			res = Result{Stage: domain.StageError, Err: err}
		}
	}()
	return c.pipeline.Run(ctx, src, func(stage domain.Stage, err error) {
		c.setStage(id, index, stage, err)
	})
}

func (c *Controller) setStage(id string, index int, stage domain.Stage, err error) {
	c.mu.Lock()
	if c.batchID != id || index >= len(c.entries) {
		c.mu.Unlock()
		return
	}
	entry := &c.entries[index]
	if entry.Stage.Terminal() {
		c.mu.Unlock()
		return
	}
	entry.Stage = stage
	if err != nil {
		entry.Error = err.Error()
	}
	snapshot := *entry
	c.mu.Unlock()
	c.publish(Update{Kind: UpdateEntry, BatchID: id, Index: index, Entry: snapshot})
}

func (c *Controller) clear(id string) {
	c.mu.Lock()
	if c.batchID != id || c.processing {
		c.mu.Unlock()
		return
	}
	c.entries = nil
	c.clearTimer = nil
	c.mu.Unlock()
	c.publish(Update{Kind: UpdateCleared, BatchID: id})
}

func (c *Controller) publish(u Update) {
	c.mu.Lock()
	subs := make([]func(Update), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(u)
	}
}
