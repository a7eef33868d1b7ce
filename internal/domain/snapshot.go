package domain

import "time"

// Snapshot is one published load: the aggregated dataset plus the anchors
// needed to draw it. Snapshots are immutable once built.
type Snapshot struct {
	Dataset   Dataset
	Centroids map[string]LatLng
	Source    string
	LoadedAt  time.Time
}

// NewSnapshot stamps a dataset with the current time.
func NewSnapshot(ds Dataset, centroids map[string]LatLng, source string) Snapshot {
	return Snapshot{
		Dataset:   ds,
		Centroids: centroids,
		Source:    source,
		LoadedAt:  clock.Now().UTC(),
	}
}
