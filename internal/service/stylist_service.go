package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stylist/internal/domain"
	"stylist/internal/imagecache"
	"stylist/internal/ingest"
	"stylist/internal/matching"
	"stylist/internal/stylistapi"
	"stylist/internal/wardrobe"
)

var ErrNoImages = errors.New("no supported images found (jpg, jpeg, png, webp, heic, heif)")

// Options tunes the components the service assembles.
type Options struct {
	GracePeriod time.Duration
	ImageCache  imagecache.Config
}

// StylistService composes the remote client, the upload batch controller,
// the outfit orchestrator and the session's wardrobe views.
type StylistService struct {
	client  *stylistapi.Client
	batches *ingest.Controller
	matcher *matching.Orchestrator
	recent  *wardrobe.Store
	catalog *wardrobe.Store
	images  *imagecache.Cache
	logger  *slog.Logger
}

func NewStylistService(client *stylistapi.Client, opts Options, logger *slog.Logger) (*StylistService, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	images, err := imagecache.New(client, opts.ImageCache, logger.With("component", "imagecache"))
	if err != nil {
		return nil, err
	}
	s := &StylistService{
		client:  client,
		recent:  wardrobe.NewStore(),
		catalog: wardrobe.NewStore(),
		images:  images,
		logger:  logger,
	}
	ctrlOpts := []ingest.ControllerOption{
		ingest.WithItemSink(sinks{s.recent, s.catalog}),
		ingest.WithControllerLogger(logger.With("component", "ingest")),
	}
	if opts.GracePeriod > 0 {
		ctrlOpts = append(ctrlOpts, ingest.WithGracePeriod(opts.GracePeriod))
	}
	pipeline := ingest.NewPipeline(client, logger.With("component", "pipeline"))
	s.batches = ingest.NewController(pipeline, ctrlOpts...)
	s.matcher = matching.NewOrchestrator(client, logger.With("component", "matching"))
	return s, nil
}

// IngestFiles expands the patterns to supported images and runs them as one
// batch. Skipped paths are returned even when nothing could be submitted.
func (s *StylistService) IngestFiles(ctx context.Context, patterns []string) (domain.BatchSummary, []string, error) {
	sources, skipped, err := ingest.CollectSources(patterns)
	if err != nil {
		return domain.BatchSummary{}, skipped, err
	}
	if len(sources) == 0 {
		return domain.BatchSummary{}, skipped, ErrNoImages
	}
	for _, p := range skipped {
		s.logger.Info("skipping unsupported path", "path", p)
	}
	summary, err := s.batches.Submit(ctx, sources)
	return summary, skipped, err
}

// IngestSources runs already opened sources as one batch.
func (s *StylistService) IngestSources(ctx context.Context, sources []ingest.Source) (domain.BatchSummary, error) {
	return s.batches.Submit(ctx, sources)
}

// FindOutfit runs one outfit query.
func (s *StylistService) FindOutfit(ctx context.Context, query string) (domain.MatchResult, error) {
	return s.matcher.Find(ctx, query)
}

// LastOutfit is the most recent successful match.
func (s *StylistService) LastOutfit() (domain.MatchResult, bool) { return s.matcher.Result() }

// RecentlyAdded lists items ingested in this session, newest first.
func (s *StylistService) RecentlyAdded() []domain.ClothingItem { return s.recent.Items() }

// RefreshWardrobe reloads the full wardrobe from the service.
func (s *StylistService) RefreshWardrobe(ctx context.Context) ([]domain.ClothingItem, error) {
	items, err := s.client.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	s.catalog.Replace(items)
	return s.catalog.Items(), nil
}

// Wardrobe is the last known full wardrobe plus items added since.
func (s *StylistService) Wardrobe() []domain.ClothingItem { return s.catalog.Items() }

// Item fetches one record by id.
func (s *StylistService) Item(ctx context.Context, id string) (domain.ClothingItem, error) {
	return s.client.GetItem(ctx, id)
}

// Image returns the image bytes for an item path or filename.
func (s *StylistService) Image(ctx context.Context, imagePath string) ([]byte, error) {
	name := domain.ImageFilename(imagePath)
	data, err := s.images.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}
	return data, nil
}

// ImageURL is where the service serves an item's image.
func (s *StylistService) ImageURL(imagePath string) string { return s.client.ImageURL(imagePath) }

func (s *StylistService) SubscribeBatch(fn func(ingest.Update)) (unsubscribe func()) {
	return s.batches.Subscribe(fn)
}

func (s *StylistService) SubscribeMatch(fn func(matching.Update)) (unsubscribe func()) {
	return s.matcher.Subscribe(fn)
}

// BatchSnapshot is the current batch state.
func (s *StylistService) BatchSnapshot() ingest.Snapshot { return s.batches.Snapshot() }

// Busy reports whether a batch or a query is running.
func (s *StylistService) Busy() bool {
	return s.batches.Processing() || s.matcher.Phase() != matching.PhaseIdle
}

func (s *StylistService) Close() error { return s.images.Close() }

type sinks []ingest.ItemSink

func (ss sinks) Add(item domain.ClothingItem) {
	for _, s := range ss {
		s.Add(item)
	}
}
