package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"stylist/internal/domain"
	"stylist/internal/stylistapi"
)

// Remote is the part of the stylist service the pipeline drives.
type Remote interface {
	Upload(ctx context.Context, filename string, content io.Reader) (stylistapi.UploadResult, error)
	Analyze(ctx context.Context, imagePath string) (domain.ClothingItem, error)
	CreateRecord(ctx context.Context, item domain.ClothingItem) (stylistapi.RecordRef, error)
	CreateIndexEntry(ctx context.Context, imagePath, description string) (stylistapi.IndexRef, error)
}

// Result is the outcome of one file. Item is set only when Stage is Complete.
type Result struct {
	Stage domain.Stage
	Item  domain.ClothingItem
	Err   error
}

func (r Result) OK() bool { return r.Stage == domain.StageComplete }

// StageFunc is told about every stage a file enters after the initial one.
type StageFunc func(stage domain.Stage, err error)

// Pipeline drives a single file through upload, analysis, record creation
// and search indexing.
type Pipeline struct {
	remote Remote
	logger *slog.Logger
}

func NewPipeline(remote Remote, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{remote: remote, logger: logger}
}

// Run processes src, starting at Uploading. A failing call moves the file to
// Error and stops; earlier server-side writes are left as they are.
func (p *Pipeline) Run(ctx context.Context, src Source, observe StageFunc) Result {
	if observe == nil {
		observe = func(domain.Stage, error) {}
	}
	logger := p.logger.With("file", src.Name)

	var (
		upload   stylistapi.UploadResult
		analysis domain.ClothingItem
		record   stylistapi.RecordRef
	)
	steps := []struct {
		event Event
		run   func() error
	}{
		{EventUploaded, func() error {
			if src.Open == nil {
				return fmt.Errorf("open %s: no content", src.Name)
			}
			rc, err := src.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", src.Name, err)
			}
			defer rc.Close()
			upload, err = p.remote.Upload(ctx, src.Name, rc)
			return err
		}},
		{EventAnalyzed, func() (err error) {
			analysis, err = p.remote.Analyze(ctx, upload.FilePath)
			return err
		}},
		{EventRecordSaved, func() (err error) {
			record, err = p.remote.CreateRecord(ctx, analysis)
			return err
		}},
		{EventIndexed, func() error {
			_, err := p.remote.CreateIndexEntry(ctx, analysis.ImagePath, analysis.IndexDescription())
			return err
		}},
	}

	stage := domain.StageUploading
	for _, step := range steps {
		if err := step.run(); err != nil {
			stage, _ = Transition(stage, EventFailed)
			logger.Warn("ingestion failed", "event", step.event, "error", err)
			observe(stage, err)
			return Result{Stage: stage, Err: err}
		}
		next, err := Transition(stage, step.event)
		if err != nil {
			observe(domain.StageError, err)
			return Result{Stage: domain.StageError, Err: err}
		}
		stage = next
		logger.Debug("stage advanced", "stage", stage)
		observe(stage, nil)
	}

	item := analysis.WithID(record.ItemID)
	logger.Info("item ingested", "item_id", item.ID)
	return Result{Stage: stage, Item: item}
}
