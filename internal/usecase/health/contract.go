package health

import "context"

// Pinger checks dependency availability.
type Pinger interface {
	Ping(ctx context.Context) error
}
