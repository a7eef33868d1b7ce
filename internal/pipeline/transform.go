package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/sterileloop/internal/domain"
)

// SnapshotTransformer implements Transformer by anchoring every state to a
// centroid, with optional geocoding for states outside the embedded table.
type SnapshotTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a SnapshotTransformer. Pass a nil geocoder to disable
// geocoding fallback.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *SnapshotTransformer {
	return &SnapshotTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *SnapshotTransformer) Transform(ctx context.Context, ds domain.Dataset, source string) (domain.Snapshot, error) {
	centroids := domain.ResolveCentroids(ctx, ds.StateNames(), t.geocoder, t.logger)
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	if missing := len(ds.States) - len(centroids); missing > 0 {
		t.logger.Warn("states without a map anchor", "missing", missing, "states", len(ds.States))
	}
	return domain.NewSnapshot(ds, centroids, source), nil
}
