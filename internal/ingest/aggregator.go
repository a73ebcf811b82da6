package ingest

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"motorhub/internal/motor"
	"motorhub/pkg/models"
	"motorhub/pkg/motorid"
)

// Source is implemented by each inventory feed (CSV export, JSON feed,
// saved detail pages). Each source maps its own format into FeedRecord.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.FeedRecord, error)
}

// Aggregator fetches every source and folds the records into one motor per
// model key.
type Aggregator struct {
	Sources []Source
	Log     zerolog.Logger
}

// Result is the outcome of one FetchAndMerge.
type Result struct {
	Motors  []models.MotorCanonical
	Fetched int
	Dropped int      // records whose description produced no key
	Failed  []string // sources that returned an error
}

func NewAggregator(log zerolog.Logger, sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources, Log: log}
}

// FetchAndMerge fetches all sources concurrently. A failing source is
// logged and skipped; the others still merge. Records are keyed
// independently of one another, so source order only affects tie-breaks
// in merge, and sources are merged in their configured order.
func (a *Aggregator) FetchAndMerge(ctx context.Context) (Result, error) {
	batches := make([][]models.FeedRecord, len(a.Sources))
	errs := make([]error, len(a.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.Sources {
		i, src := i, src
		g.Go(func() error {
			a.Log.Debug().Str("source", src.Name()).Msg("fetching")
			recs, err := src.FetchAll(gctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			batches[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	byKey := make(map[string]models.MotorCanonical)
	for i, src := range a.Sources {
		if errs[i] != nil {
			a.Log.Warn().Err(errs[i]).Str("source", src.Name()).Msg("source failed")
			res.Failed = append(res.Failed, src.Name())
			continue
		}
		a.Log.Info().Str("source", src.Name()).Int("records", len(batches[i])).Msg("fetched")

		for _, rec := range batches[i] {
			res.Fetched++
			m, ok := Canonicalize(rec)
			if !ok {
				res.Dropped++
				a.Log.Debug().Str("source", src.Name()).Str("description", rec.Description).Msg("no model key")
				continue
			}
			if existing, ok := byKey[m.ModelKey]; ok {
				byKey[m.ModelKey] = mergeMotor(existing, m)
			} else {
				byKey[m.ModelKey] = m
			}
		}
	}

	res.Motors = make([]models.MotorCanonical, 0, len(byKey))
	for _, m := range byKey {
		res.Motors = append(res.Motors, m)
	}
	sort.Slice(res.Motors, func(i, j int) bool {
		return res.Motors[i].ModelKey < res.Motors[j].ModelKey
	})
	return res, nil
}

// Canonicalize derives the identity of one feed record. ok is false when
// the description yields no key at all.
func Canonicalize(rec models.FeedRecord) (models.MotorCanonical, bool) {
	id := motor.Identify(rec.Description, rec.Features...)
	if id.ModelKey == "" {
		return models.MotorCanonical{}, false
	}

	m := models.MotorCanonical{
		ModelKey:    id.ModelKey,
		Family:      string(id.Parsed.Family),
		MotorFamily: string(id.MotorFamily),
		Horsepower:  id.Parsed.Horsepower,
		EFI:         id.Parsed.Fuel == motorid.FuelEFI,
		Rigging:     id.Parsed.RiggingCode(),
		DisplayName: id.DisplayName,
		Description: strings.TrimSpace(rec.Description),
		Features:    mergeStringSlices(nil, rec.Features),
		MSRP:        rec.MSRP,
		SalePrice:   rec.SalePrice,
		StockQty:    rec.StockQty,
		ImageURL:    rec.ImageURL,
	}
	if rec.Source != "" {
		m.SourceIDs = map[string]string{rec.Source: rec.SourceID}
	}
	return m, true
}

// mergeMotor folds two records with the same key:
//
// - Identity fields come from base; they are equal by construction.
// - Description: the longer one.
// - Features: set union.
// - MSRP: the highest. SalePrice: the lowest positive.
// - StockQty: summed across sources.
// - ImageURL: keep existing; if empty, use incoming.
// - SourceIDs: union.
func mergeMotor(base, incoming models.MotorCanonical) models.MotorCanonical {
	if len(incoming.Description) > len(base.Description) {
		base.Description = incoming.Description
	}
	if len(incoming.DisplayName) > len(base.DisplayName) {
		base.DisplayName = incoming.DisplayName
	}

	base.Features = mergeStringSlices(base.Features, incoming.Features)

	if incoming.MSRP > base.MSRP {
		base.MSRP = incoming.MSRP
	}
	if incoming.SalePrice > 0 && (base.SalePrice == 0 || incoming.SalePrice < base.SalePrice) {
		base.SalePrice = incoming.SalePrice
	}

	base.StockQty += incoming.StockQty

	if base.ImageURL == "" && incoming.ImageURL != "" {
		base.ImageURL = incoming.ImageURL
	}

	if len(incoming.SourceIDs) > 0 {
		merged := make(map[string]string, len(base.SourceIDs)+len(incoming.SourceIDs))
		for k, v := range base.SourceIDs {
			merged[k] = v
		}
		for k, v := range incoming.SourceIDs {
			if prev, ok := merged[k]; ok && prev != "" && prev != v {
				merged[k] = prev + "," + v
				continue
			}
			merged[k] = v
		}
		base.SourceIDs = merged
	}
	return base
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if strings.EqualFold(x, v) {
			return slice
		}
	}
	return append(slice, v)
}

func mergeStringSlices(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	for _, v := range b {
		if v = strings.TrimSpace(v); v != "" {
			out = appendIfMissing(out, v)
		}
	}
	return out
}
