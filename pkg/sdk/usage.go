package docsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docsearch/internal/domain/tenant"
)

// UsageReport describes a tenant's quota in the current window.
type UsageReport struct {
	Tenant    string
	Limit     int
	Used      int
	Remaining int
	Unlimited bool
	ResetsAt  time.Time
}

// Usage returns the tenant's quota state. It does not consume quota.
func (c *Client) Usage(ctx context.Context, tenantID string) (_ UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()

	t, err := tenant.Parse(tenantID)
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage: %w", err)
	}
	r, err := c.usageSvc.GetReport(ctx, t)
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage: %w", err)
	}

	report := UsageReport{
		Tenant:    r.Tenant().String(),
		Limit:     r.Limit(),
		Used:      r.Used(),
		Remaining: r.Remaining(),
		Unlimited: r.Unlimited(),
	}
	if !r.Unlimited() {
		report.ResetsAt = r.ResetsAt()
	}
	return report, nil
}
