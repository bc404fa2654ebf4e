package usage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
	domusage "github.com/kailas-cloud/docsearch/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	wr     WindowReader
	cr     CounterReader
	logger *zap.Logger
}

// New creates a Service. cr can be nil (no usage store configured).
func New(wr WindowReader, cr CounterReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{wr: wr, cr: cr, logger: logger}
}

// GetReport builds the tenant's report for the current window. Reading the
// report does not consume quota. Persisted counters are attached when the
// usage store answers; a failing store only drops them from the report.
func (s *Service) GetReport(ctx context.Context, t tenant.ID) (domusage.Report, error) {
	if t == "" {
		return domusage.Report{}, fmt.Errorf("missing tenant: %w", domain.ErrTenantRequired)
	}

	snap := s.wr.Snapshot(t)
	r := domusage.NewReport(t, snap.Limit, snap.Used, snap.ResetAt)

	if s.cr == nil {
		return r, nil
	}

	allowed, rejected, err := s.cr.Counts(ctx, t, snap.Window)
	if err != nil {
		s.logger.Warn("Failed to read usage counters",
			zap.String("tenant", t.String()), zap.Int64("window", snap.Window), zap.Error(err))
		return r, nil
	}
	return r.WithRecorded(domusage.Recorded{Allowed: allowed, Rejected: rejected}), nil
}
