// Package dataset decodes pesticide usage exports and provider listings and
// fetches them from files or HTTP endpoints.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/sterileloop/internal/domain"
)

// ErrNoHeader is returned when a delimited input has no header row.
var ErrNoHeader = errors.New("missing header row")

// ParseDelimited reads a tab- or comma-separated usage export. The delimiter is
// taken from the header line: a tab anywhere in it selects TSV. Blank lines are
// skipped and short rows are padded with empty cells.
func ParseDelimited(r io.Reader) ([]domain.UsageRecord, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	firstLine, _, _ := bytes.Cut(peek, []byte("\n"))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	if bytes.ContainsRune(firstLine, '\t') {
		cr.Comma = '\t'
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var records []domain.UsageRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("read row at line %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = row[j]
			} else {
				fields[h] = ""
			}
		}
		records = append(records, domain.NewUsageRecord(fields))
	}
	return records, nil
}

// ParseSummary decodes a precomputed summary document.
func ParseSummary(r io.Reader) (domain.Summary, error) {
	var s domain.Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return domain.Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

// ParseProviders reads a provider listing with header
// id,name,lat,lng,services,contact. Missing ids become "p-<row>". Unparseable
// coordinates are kept as NaN so the locator ranks them last.
func ParseProviders(r io.Reader) ([]domain.GeoProvider, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read provider header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var providers []domain.GeoProvider
	for idx := 0; ; {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read provider row: %w", err)
		}
		if blankRow(row) {
			continue
		}
		idx++
		p := domain.GeoProvider{
			ID:       cell(row, "id"),
			Name:     cell(row, "name"),
			Lat:      parseCoord(cell(row, "lat")),
			Lng:      parseCoord(cell(row, "lng")),
			Services: splitServices(cell(row, "services")),
			Contact:  cell(row, "contact"),
		}
		if p.ID == "" {
			p.ID = "p-" + strconv.Itoa(idx)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func parseCoord(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func splitServices(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
