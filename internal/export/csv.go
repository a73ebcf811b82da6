// Package export writes the catalog out as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"motorhub/internal/motor"
	"motorhub/pkg/models"
)

var header = []string{
	"model_key", "slug", "motor_family", "family", "horsepower", "efi", "rigging",
	"display_name", "features", "msrp", "sale_price", "stock_qty", "image_url", "updated_at",
}

const pageSize = 100

// WriteCSV streams every catalog row matching q, ordered like List.
// q.Limit and q.Offset are ignored. It returns the number of rows written.
func WriteCSV(ctx context.Context, repo *motor.Repo, q motor.ListQuery, out io.Writer) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return 0, err
	}

	n := 0
	for offset := 0; ; offset += pageSize {
		q.Limit, q.Offset = pageSize, offset
		page, err := repo.List(ctx, q)
		if err != nil {
			return n, fmt.Errorf("list motors at %d: %w", offset, err)
		}
		for _, m := range page {
			if err := w.Write(row(m)); err != nil {
				return n, err
			}
			n++
		}
		if len(page) < pageSize {
			break
		}
	}

	w.Flush()
	return n, w.Error()
}

// WriteCSVFile is WriteCSV into path, creating parent directories.
func WriteCSVFile(ctx context.Context, repo *motor.Repo, q motor.ListQuery, path string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return WriteCSV(ctx, repo, q, f)
}

func row(m models.MotorDB) []string {
	hp := ""
	if m.Horsepower != nil {
		hp = strconv.FormatFloat(*m.Horsepower, 'f', -1, 64)
	}
	return []string{
		m.ModelKey,
		m.Slug,
		m.MotorFamily,
		m.Family,
		hp,
		strconv.FormatBool(m.EFI),
		m.Rigging,
		m.DisplayName,
		strings.Join(m.Features, ";"),
		money(m.MSRP),
		money(m.SalePrice),
		strconv.Itoa(m.StockQty),
		m.ImageURL,
		m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func money(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
