// Package index prepares the backend index before documents are served.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service ensures the document index exists.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates an index service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// EnsureReady creates the index with its mapping if it does not exist yet.
// Calling it repeatedly is safe.
func (s *Service) EnsureReady(ctx context.Context) error {
	created, err := s.repo.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("ensure index %s: %w", s.repo.Name(), err)
	}
	if created {
		s.logger.Info("Index created", zap.String("index", s.repo.Name()))
	} else {
		s.logger.Debug("Index already exists", zap.String("index", s.repo.Name()))
	}
	return nil
}

// Bootstrap runs EnsureReady at startup. A failure is logged and the
// service keeps running; requests will report the backend as unavailable.
func (s *Service) Bootstrap(ctx context.Context) {
	if err := s.EnsureReady(ctx); err != nil {
		s.logger.Warn("Index bootstrap failed, continuing", zap.Error(err))
	}
}
