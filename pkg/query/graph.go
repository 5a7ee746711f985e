package query

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
)

// Graph delegates to the shared backend.BFS traversal, applying the
// service-level default depth and limit when the caller leaves them unset.
func Graph(ctx context.Context, b backend.Backend, filter backend.GraphFilter) (backend.GraphData, error) {
	if filter.Depth <= 0 {
		filter.Depth = 2
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return b.GetGraphData(ctx, filter)
}
