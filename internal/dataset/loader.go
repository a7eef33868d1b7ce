package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/sterileloop/internal/domain"
)

var (
	// ErrUnknownFormat is returned when a payload format cannot be inferred.
	ErrUnknownFormat = errors.New("unknown dataset format")

	// ErrEmptyDataset reports a dataset with no states. Decode accepts empty
	// payloads; callers that need data check for it themselves.
	ErrEmptyDataset = errors.New("dataset has no states")
)

// Loader fetches and decodes a dataset from a single source.
type Loader struct {
	source Source
	logger *slog.Logger
}

// NewLoader creates a loader for the given source.
func NewLoader(source Source, logger *slog.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Name identifies the underlying source.
func (l *Loader) Name() string { return l.source.Name() }

// Extract fetches and decodes the dataset.
func (l *Loader) Extract(ctx context.Context) (domain.Dataset, error) {
	payload, err := l.source.Fetch(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("fetch %s: %w", l.source.Name(), err)
	}
	ds, err := Decode(payload)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("decode %s: %w", payload.Name, err)
	}
	if ds.Empty() {
		l.logger.Warn("dataset has no states", "source", payload.Name, "format", payload.Format)
	}
	l.logger.Debug("dataset decoded",
		"source", payload.Name,
		"format", payload.Format,
		"bytes", len(payload.Body),
		"states", len(ds.States),
	)
	return ds, nil
}

// Decode turns a payload into a dataset. A payload with no rows decodes to an
// empty dataset, not an error.
func Decode(p Payload) (domain.Dataset, error) {
	var ds domain.Dataset
	switch p.Format {
	case FormatSummary:
		s, err := ParseSummary(bytes.NewReader(p.Body))
		if err != nil {
			return domain.Dataset{}, err
		}
		ds = domain.FromSummary(s)
	case FormatDelimited:
		records, err := ParseDelimited(bytes.NewReader(p.Body))
		if err != nil {
			return domain.Dataset{}, err
		}
		ds = domain.NewDataset(records)
	default:
		return domain.Dataset{}, fmt.Errorf("%w: %q", ErrUnknownFormat, p.Format)
	}
	return ds, nil
}

// ReadFile decodes a local dataset file in one call.
func ReadFile(ctx context.Context, path string) (domain.Dataset, error) {
	p, err := NewFileSource(path).Fetch(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	return Decode(p)
}

// ReadProviders loads a provider listing from disk.
func ReadProviders(path string) ([]domain.GeoProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers: %w", err)
	}
	defer f.Close()
	return ParseProviders(f)
}
