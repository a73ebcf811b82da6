package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"motorhub/pkg/models"
)

// HTMLPageSource reads motor detail pages that were saved to disk by an
// upstream crawler. Fetching them is not this package's concern.
//
// Expected markup (first match wins for each field):
//
//	title:       [data-model], h1.product-title, h1, title
//	sku:         [data-sku] attribute
//	features:    .features li, .specs li
//	msrp:        [data-msrp] attribute, .msrp
//	sale price:  [data-price] attribute, .price
//	stock:       [data-stock] attribute
//	image:       meta[property="og:image"]
type HTMLPageSource struct {
	SourceName string
	Dir        string
}

func NewHTMLPageSource(name, dir string) *HTMLPageSource {
	return &HTMLPageSource{SourceName: name, Dir: dir}
}

func (s *HTMLPageSource) Name() string { return s.SourceName }

func (s *HTMLPageSource) FetchAll(ctx context.Context) ([]models.FeedRecord, error) {
	var paths []string
	for _, pattern := range []string{"*.html", "*.htm"} {
		matches, err := filepath.Glob(filepath.Join(s.Dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("%s: glob: %w", s.SourceName, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	out := make([]models.FeedRecord, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ok, err := s.readPage(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *HTMLPageSource) readPage(path string) (models.FeedRecord, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FeedRecord{}, false, fmt.Errorf("%s: open %s: %w", s.SourceName, path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return models.FeedRecord{}, false, fmt.Errorf("%s: parse %s: %w", s.SourceName, path, err)
	}

	title := firstNonEmpty(
		attr(doc, "[data-model]", "data-model"),
		text(doc, "h1.product-title"),
		text(doc, "h1"),
		text(doc, "title"),
	)
	if title == "" {
		return models.FeedRecord{}, false, nil
	}

	var features []string
	doc.Find(".features li, .specs li").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			features = append(features, t)
		}
	})

	sku := attr(doc, "[data-sku]", "data-sku")
	if sku == "" {
		sku = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return models.FeedRecord{
		Source:      s.SourceName,
		SourceID:    sku,
		Description: title,
		Features:    features,
		MSRP:        parseMoney(firstNonEmpty(attr(doc, "[data-msrp]", "data-msrp"), text(doc, ".msrp"))),
		SalePrice:   parseMoney(firstNonEmpty(attr(doc, "[data-price]", "data-price"), text(doc, ".price"))),
		StockQty:    parseIntOrZero(attr(doc, "[data-stock]", "data-stock")),
		ImageURL:    attr(doc, `meta[property="og:image"]`, "content"),
	}, true, nil
}

func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
