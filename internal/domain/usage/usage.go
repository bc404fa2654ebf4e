// Package usage describes a tenant's request quota consumption.
package usage

import (
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// Recorded holds the persisted decision counters for one window.
type Recorded struct {
	Allowed  int64
	Rejected int64
}

// Report is a tenant's quota status for the current window.
type Report struct {
	tenant    tenant.ID
	windowEnd time.Time
	limit     int
	used      int
	remaining int
	recorded  *Recorded
}

// NewReport creates a usage report. A non-positive limit means unlimited:
// used and remaining are reported as zero.
func NewReport(t tenant.ID, limit, used int, windowEnd time.Time) Report {
	if limit <= 0 {
		return Report{tenant: t, windowEnd: windowEnd.UTC()}
	}
	remaining := max(limit-used, 0)
	return Report{
		tenant:    t,
		windowEnd: windowEnd.UTC(),
		limit:     limit,
		used:      used,
		remaining: remaining,
	}
}

// WithRecorded attaches persisted counters to the report.
func (r Report) WithRecorded(rec Recorded) Report {
	r.recorded = &rec
	return r
}

// Tenant returns the reported tenant.
func (r *Report) Tenant() tenant.ID { return r.tenant }

// Limit returns the per-window limit (0 when unlimited).
func (r *Report) Limit() int { return r.limit }

// Used returns the admitted requests in the current window.
func (r *Report) Used() int { return r.used }

// Remaining returns how many requests are still admissible.
func (r *Report) Remaining() int { return r.remaining }

// ResetsAt returns the end of the current window.
func (r *Report) ResetsAt() time.Time { return r.windowEnd }

// Unlimited reports whether the quota is disabled.
func (r *Report) Unlimited() bool { return r.limit <= 0 }

// Recorded returns the persisted counters, if a usage store is configured.
func (r *Report) Recorded() (Recorded, bool) {
	if r.recorded == nil {
		return Recorded{}, false
	}
	return *r.recorded, true
}
