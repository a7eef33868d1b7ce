package dataset

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies how a payload is decoded.
type Format string

const (
	FormatSummary   Format = "summary"
	FormatDelimited Format = "delimited"
)

// maxPayloadBytes caps remote dataset downloads.
const maxPayloadBytes = 64 << 20

// Payload is a fetched, not yet decoded, dataset.
type Payload struct {
	Name   string
	Format Format
	Body   []byte
}

// Source fetches raw dataset bytes. Implementations must honour ctx
// cancellation so a superseded load stops promptly.
type Source interface {
	Fetch(ctx context.Context) (Payload, error)
	Name() string
}

// FormatFromName infers the format from a file name or URL path.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatSummary, nil
	case ".tsv", ".csv", ".txt":
		return FormatDelimited, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FileSource reads a dataset from the local filesystem.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for a local file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Fetch(ctx context.Context) (Payload, error) {
	format, err := FormatFromName(s.Path)
	if err != nil {
		return Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	body, err := os.ReadFile(s.Path)
	if err != nil {
		return Payload{}, fmt.Errorf("read dataset file: %w", err)
	}
	return Payload{Name: s.Path, Format: format, Body: body}, nil
}

// HTTPSource downloads a dataset over HTTP.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource creates a source for a remote dataset URL.
func NewHTTPSource(rawURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url: rawURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HTTPSource) Name() string { return s.url }

func (s *HTTPSource) Fetch(ctx context.Context) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("dataset request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Payload{}, fmt.Errorf("dataset fetch error: status %d: %s", resp.StatusCode, body)
	}

	format, err := formatFromResponse(s.url, resp.Header.Get("Content-Type"))
	if err != nil {
		return Payload{}, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("read dataset body: %w", err)
	}
	return Payload{Name: s.url, Format: format, Body: body}, nil
}

func formatFromResponse(rawURL, contentType string) (Format, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/json":
			return FormatSummary, nil
		case "text/tab-separated-values", "text/csv":
			return FormatDelimited, nil
		}
	}
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return FormatFromName(path.Base(p))
}
