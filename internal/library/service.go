package library

import (
	"context"
	"log/slog"
	"time"

	"tunekeep/internal/catalog"
	"tunekeep/internal/config"
	"tunekeep/internal/logging"
	"tunekeep/internal/organizer"
	"tunekeep/internal/services"
)

// Service wires the catalog to the file-system collaborators.
type Service struct {
	cfg       *config.Config
	store     *catalog.Store
	logger    *slog.Logger
	organizer *organizer.Organizer
	now       func() time.Time
}

// New constructs a Service.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Service {
	logger = logging.NewComponentLogger(logger, "library")
	return &Service{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		organizer: organizer.New(logger, cfg.Organizer.MoveAcrossDevices),
		now:       time.Now,
	}
}

// Store exposes the catalog backing the service.
func (s *Service) Store() *catalog.Store {
	return s.store
}

// Config exposes the effective configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) loggerFor(ctx context.Context, stage string) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, stage)
	return ctx, logging.WithContext(ctx, s.logger)
}

// lookup fetches a track and turns a missing row into ErrNotFound.
func (s *Service) lookup(ctx context.Context, stage string, id int64) (*catalog.Track, error) {
	track, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, services.Wrap(services.ErrNotFound, stage, "lookup", "no track with that id", catalog.ErrTrackNotFound)
	}
	return track, nil
}
