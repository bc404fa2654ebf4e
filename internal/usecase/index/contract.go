package index

import "context"

// Repository creates the document index when it is missing.
type Repository interface {
	Ensure(ctx context.Context) (created bool, err error)
	Name() string
}
