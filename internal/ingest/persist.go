package ingest

import (
	"context"
	"fmt"

	"motorhub/internal/motor"
	"motorhub/pkg/config"
	"motorhub/pkg/models"
)

// SaveToDatabase upserts merged motors into the catalog, keyed by
// model_key. Rows for keys that no source mentions are left untouched.
func SaveToDatabase(ctx context.Context, repo *motor.Repo, motors []models.MotorCanonical) error {
	if len(motors) == 0 {
		return nil
	}
	if err := repo.Upsert(ctx, motors); err != nil {
		return fmt.Errorf("save motors: %w", err)
	}
	return nil
}

// SourcesFromConfig builds one Source per configured feed.
func SourcesFromConfig(cfgs []config.SourceConfig) ([]Source, error) {
	out := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Type {
		case "csv":
			out = append(out, NewCSVSource(c.Name, c.Path))
		case "html":
			out = append(out, NewHTMLPageSource(c.Name, c.Path))
		case "json":
			src := NewJSONFeedSource(c.Name, c.URL, c.RateLimit)
			if c.Timeout > 0 {
				src.Client.Timeout = c.Timeout
			}
			out = append(out, src)
		default:
			return nil, fmt.Errorf("source %s: unknown type %q", c.Name, c.Type)
		}
	}
	return out, nil
}

