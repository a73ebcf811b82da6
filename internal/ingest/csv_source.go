package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"motorhub/pkg/models"
)

// CSVSource reads a dealer inventory export (for example a Google Sheets
// download). Columns are matched by header name, case-insensitively:
//
//	sku, description (or model), features (";" separated), msrp,
//	sale_price, stock, image_url
type CSVSource struct {
	SourceName string
	Path       string
}

func NewCSVSource(name, path string) *CSVSource {
	return &CSVSource{SourceName: name, Path: path}
}

func (s *CSVSource) Name() string { return s.SourceName }

func (s *CSVSource) FetchAll(ctx context.Context) ([]models.FeedRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", s.SourceName, err)
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, in io.Reader) ([]models.FeedRecord, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", s.SourceName, err)
	}
	if _, ok := header["description"]; !ok {
		if _, ok := header["model"]; !ok {
			return nil, fmt.Errorf("%s: header needs a description or model column", s.SourceName)
		}
	}

	var out []models.FeedRecord
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", s.SourceName, line, err)
		}
		if len(row) == 0 {
			continue
		}

		desc := valueAt(header, row, "description")
		if desc == "" {
			desc = valueAt(header, row, "model")
		}
		if desc == "" {
			continue
		}

		out = append(out, models.FeedRecord{
			Source:      s.SourceName,
			SourceID:    valueAt(header, row, "sku"),
			Description: desc,
			Features:    splitList(valueAt(header, row, "features")),
			MSRP:        parseMoney(valueAt(header, row, "msrp")),
			SalePrice:   parseMoney(valueAt(header, row, "sale_price")),
			StockQty:    parseIntOrZero(valueAt(header, row, "stock")),
			ImageURL:    valueAt(header, row, "image_url"),
		})
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		name = strings.TrimPrefix(name, "\ufeff")
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseMoney accepts "$12,499.00", "12499" or "". Unparseable is 0.
func parseMoney(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
