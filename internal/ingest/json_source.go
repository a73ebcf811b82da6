package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"motorhub/pkg/models"
)

// JSONFeedSource reads a paginated dealer inventory feed:
//
//	GET {BaseURL}/inventory?page=1
//	{
//	  "items": [
//	    {
//	      "stock_number": "M-1042",
//	      "title": "2024 Mercury FourStroke 9.9 HP EFI ELH",
//	      "options": ["Command Thrust"],
//	      "msrp": "3,499.00",
//	      "price": 3299,
//	      "quantity": 2,
//	      "image": "https://..."
//	    }
//	  ],
//	  "next_page": 2
//	}
//
// next_page is 0 or absent on the last page. Requests are paced by Limiter.
type JSONFeedSource struct {
	SourceName string
	BaseURL    string
	Client     *http.Client
	Limiter    *rate.Limiter
	MaxPages   int // safety
}

func NewJSONFeedSource(name, baseURL string, perSecond float64) *JSONFeedSource {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &JSONFeedSource{
		SourceName: name,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: 15 * time.Second},
		Limiter:    rate.NewLimiter(limit, 1),
		MaxPages:   200,
	}
}

func (s *JSONFeedSource) Name() string { return s.SourceName }

type feedItem struct {
	StockNumber string          `json:"stock_number"`
	Title       string          `json:"title"`
	Options     []string        `json:"options"`
	MSRP        json.RawMessage `json:"msrp,omitempty"`
	Price       json.RawMessage `json:"price,omitempty"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
}

type feedPage struct {
	Items    []feedItem `json:"items"`
	NextPage int        `json:"next_page,omitempty"`
}

func (s *JSONFeedSource) FetchAll(ctx context.Context) ([]models.FeedRecord, error) {
	var all []models.FeedRecord

	page := 1
	for n := 0; page > 0 && n < s.MaxPages; n++ {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate wait: %w", s.SourceName, err)
		}

		fp, err := s.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, it := range fp.Items {
			if strings.TrimSpace(it.Title) == "" {
				continue
			}
			all = append(all, models.FeedRecord{
				Source:      s.SourceName,
				SourceID:    it.StockNumber,
				Description: it.Title,
				Features:    it.Options,
				MSRP:        rawMoney(it.MSRP),
				SalePrice:   rawMoney(it.Price),
				StockQty:    max(it.Quantity, 0),
				ImageURL:    it.Image,
			})
		}

		if fp.NextPage <= page {
			break
		}
		page = fp.NextPage
	}
	return all, nil
}

func (s *JSONFeedSource) fetchPage(ctx context.Context, page int) (*feedPage, error) {
	u, err := url.Parse(s.BaseURL + "/inventory")
	if err != nil {
		return nil, fmt.Errorf("%s: bad url: %w", s.SourceName, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", s.SourceName, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request: %w", s.SourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: page %d: status %d: %s", s.SourceName, page, resp.StatusCode, string(body))
	}

	var fp feedPage
	if err := json.NewDecoder(resp.Body).Decode(&fp); err != nil {
		return nil, fmt.Errorf("%s: decode page %d: %w", s.SourceName, page, err)
	}
	return &fp, nil
}

// rawMoney accepts a JSON number or a formatted string.
func rawMoney(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f < 0 {
			return 0
		}
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseMoney(s)
	}
	return 0
}
