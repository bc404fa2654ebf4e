package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Up indicates all dependencies are reachable.
	Up Status = "UP"
	// Degraded indicates at least one dependency is down.
	Degraded Status = "DEGRADED"
)

// CheckResult represents an individual dependency health check outcome.
type CheckResult string

const (
	// CheckUp indicates a passing health check.
	CheckUp CheckResult = "UP"
	// CheckDown indicates a failing health check.
	CheckDown CheckResult = "DOWN"
)

// Dependency names reported in Report.Checks.
const (
	DependencyBackend    = "backend"
	DependencyUsageStore = "usage_store"
)

// DefaultTimeout bounds each dependency ping.
const DefaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend    Pinger
	usageStore Pinger
	timeout    time.Duration
}

// New creates a Service. usageStore can be nil.
func New(backend, usageStore Pinger) *Service {
	return &Service{backend: backend, usageStore: usageStore, timeout: DefaultTimeout}
}

// WithTimeout overrides the per-dependency ping timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check pings every dependency. It never fails: unreachable dependencies
// are reported DOWN and the overall status becomes DEGRADED.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		DependencyBackend: s.ping(ctx, s.backend),
	}
	if s.usageStore != nil {
		checks[DependencyUsageStore] = s.ping(ctx, s.usageStore)
	}

	status := Up
	for _, v := range checks {
		if v == CheckDown {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) ping(ctx context.Context, p Pinger) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return CheckDown
	}
	return CheckUp
}
