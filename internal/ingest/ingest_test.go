package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorhub/internal/motor"
	"motorhub/pkg/config"
	"motorhub/pkg/database"
	"motorhub/pkg/models"
)

type staticSource struct {
	name string
	recs []models.FeedRecord
	err  error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) FetchAll(context.Context) ([]models.FeedRecord, error) {
	return s.recs, s.err
}

const dealerCSV = "SKU,Description,Features,MSRP,Sale_Price,Stock\n" +
	"A1,2024 Mercury FourStroke 9.9 HP EFI ELH,Command Thrust;Electric Start,\"$3,499.00\",3299,2\n" +
	"A2,150 Pro XS XL,,\"$14,100\",,1\n" +
	"A3,,,,,\n" +
	"A4,???###,,,,5\n"

func TestCSVSource_Read(t *testing.T) {
	src := NewCSVSource("dealer_csv", "")
	recs, err := src.read(context.Background(), strings.NewReader(dealerCSV))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "A1", recs[0].SourceID)
	assert.Equal(t, []string{"Command Thrust", "Electric Start"}, recs[0].Features)
	assert.Equal(t, 3499.0, recs[0].MSRP)
	assert.Equal(t, 3299.0, recs[0].SalePrice)
	assert.Equal(t, 2, recs[0].StockQty)
	assert.Equal(t, 14100.0, recs[1].MSRP)
	assert.Equal(t, "???###", recs[2].Description)
}

func TestCSVSource_MissingDescriptionColumn(t *testing.T) {
	src := NewCSVSource("bad", "")
	_, err := src.read(context.Background(), strings.NewReader("sku,price\n1,2\n"))
	assert.Error(t, err)
}

func TestCSVSource_FetchAllFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealer.csv")
	require.NoError(t, os.WriteFile(path, []byte(dealerCSV), 0o644))

	recs, err := NewCSVSource("dealer_csv", path).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	_, err = NewCSVSource("dealer_csv", filepath.Join(t.TempDir(), "missing.csv")).FetchAll(context.Background())
	assert.Error(t, err)
}

func TestJSONFeedSource_Paginates(t *testing.T) {
	pages := map[string]any{
		"1": map[string]any{
			"items": []map[string]any{
				{"stock_number": "M-1", "title": "Mercury Verado 300 HP DTS", "msrp": "31,000.00", "price": 29500, "quantity": 1},
				{"stock_number": "M-2", "title": "  "},
			},
			"next_page": 2,
		},
		"2": map[string]any{
			"items": []map[string]any{
				{"stock_number": "M-3", "title": "SeaPro 200 HP EXLPT", "options": []string{"Command Thrust"}, "quantity": -4},
			},
		},
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/inventory", r.URL.Path)
		page, ok := pages[r.URL.Query().Get("page")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	recs, err := NewJSONFeedSource("dealer_feed", srv.URL+"/", 0).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	require.Len(t, recs, 2)
	assert.Equal(t, 31000.0, recs[0].MSRP)
	assert.Equal(t, 29500.0, recs[0].SalePrice)
	assert.Equal(t, 0, recs[1].StockQty)
	assert.Equal(t, []string{"Command Thrust"}, recs[1].Features)
}

func TestJSONFeedSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewJSONFeedSource("dealer_feed", srv.URL, 0).FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestHTMLPageSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "verado.html"), []byte(`
<html><head>
  <title>Ignored</title>
  <meta property="og:image" content="https://cdn.example/verado.jpg">
</head><body>
  <h1 class="product-title">Mercury <b>Verado</b> 350 HP (DTS)</h1>
  <div data-sku="V350" data-price="$38,250" data-stock="2"></div>
  <span class="msrp">$41,000</span>
  <ul class="features"><li>V8</li><li> Supercharged </li></ul>
</body></html>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.htm"), []byte(`<html><body><p>nothing</p></body></html>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	recs, err := NewHTMLPageSource("detail_pages", dir).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "V350", r.SourceID)
	assert.Equal(t, "Mercury Verado 350 HP (DTS)", r.Description)
	assert.Equal(t, []string{"V8", "Supercharged"}, r.Features)
	assert.Equal(t, 41000.0, r.MSRP)
	assert.Equal(t, 38250.0, r.SalePrice)
	assert.Equal(t, 2, r.StockQty)
	assert.Equal(t, "https://cdn.example/verado.jpg", r.ImageURL)
}

func TestCanonicalize(t *testing.T) {
	m, ok := Canonicalize(models.FeedRecord{
		Source: "dealer_csv", SourceID: "A2", Description: "150 Pro XS XL", StockQty: 1,
	})
	require.True(t, ok)
	assert.Equal(t, "PROXS-150HP-EFI-XL", m.ModelKey)
	assert.Equal(t, "ProXS", m.Family)
	assert.Equal(t, "Pro XS", m.MotorFamily)
	assert.True(t, m.EFI)
	assert.Equal(t, "XL", m.Rigging)
	assert.Equal(t, map[string]string{"dealer_csv": "A2"}, m.SourceIDs)

	_, ok = Canonicalize(models.FeedRecord{Description: "???###"})
	assert.False(t, ok)
}

func TestAggregator_FetchAndMerge(t *testing.T) {
	a := NewAggregator(zerolog.Nop(),
		staticSource{name: "sheet", recs: []models.FeedRecord{
			{Source: "sheet", SourceID: "A1", Description: "FourStroke 9.9 HP EFI ELH", MSRP: 3499, SalePrice: 3299, StockQty: 2, Features: []string{"Tiller"}},
			{Source: "sheet", SourceID: "X", Description: "???###", StockQty: 1},
		}},
		staticSource{name: "broken", err: errors.New("feed offline")},
		staticSource{name: "feed", recs: []models.FeedRecord{
			{Source: "feed", SourceID: "M-7", Description: "2024 Mercury Four-Stroke 9.9hp EFI (ELH) long shaft", MSRP: 3599, SalePrice: 3199, StockQty: 1, Features: []string{"tiller", "Power Trim"}},
			{Source: "feed", SourceID: "M-8", Description: "Mercury Verado 300 HP DTS", StockQty: 1},
		}},
	)

	res, err := a.FetchAndMerge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, []string{"broken"}, res.Failed)
	require.Len(t, res.Motors, 2)

	fs := res.Motors[0]
	assert.Equal(t, "FOURSTROKE-9.9HP-EFI-ELH", fs.ModelKey)
	assert.Equal(t, 3, fs.StockQty)
	assert.Equal(t, 3599.0, fs.MSRP)
	assert.Equal(t, 3199.0, fs.SalePrice)
	assert.Equal(t, []string{"Tiller", "Power Trim"}, fs.Features)
	assert.Equal(t, map[string]string{"sheet": "A1", "feed": "M-7"}, fs.SourceIDs)
	assert.Contains(t, fs.Description, "long shaft")

	assert.Equal(t, "VERADO-300HP-EFI-DTS", res.Motors[1].ModelKey)
}

func TestAggregator_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAggregator(zerolog.Nop()).FetchAndMerge(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveToDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(ctx, db))
	repo := motor.NewRepo(db)

	m, ok := Canonicalize(models.FeedRecord{Source: "sheet", SourceID: "A1", Description: "SeaPro 200 HP EXLPT", StockQty: 4})
	require.True(t, ok)
	require.NoError(t, SaveToDatabase(ctx, repo, []models.MotorCanonical{m}))
	require.NoError(t, SaveToDatabase(ctx, repo, nil))

	got, err := repo.GetByKey(ctx, "seapro-200hp-efi-exlpt")
	require.NoError(t, err)
	assert.Equal(t, 4, got.StockQty)
	assert.Equal(t, "SeaPro", got.MotorFamily)
}

func TestSourcesFromConfig(t *testing.T) {
	srcs, err := SourcesFromConfig([]config.SourceConfig{
		{Name: "sheet", Type: "csv", Path: "a.csv"},
		{Name: "pages", Type: "html", Path: "pages"},
		{Name: "feed", Type: "json", URL: "http://localhost:9000", RateLimit: 2},
	})
	require.NoError(t, err)
	require.Len(t, srcs, 3)
	assert.Equal(t, "feed", srcs[2].Name())

	_, err = SourcesFromConfig([]config.SourceConfig{{Name: "x", Type: "ftp"}})
	assert.Error(t, err)
}

func TestMirrorHandler_RoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "dealer.csv")
	require.NoError(t, os.WriteFile(path, []byte(dealerCSV), 0o644))
	csvSrc := NewCSVSource("dealer_csv", path)

	r := gin.New()
	r.GET("/inventory", MirrorHandler(csvSrc, 2, zerolog.Nop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	want, err := csvSrc.FetchAll(context.Background())
	require.NoError(t, err)

	got, err := NewJSONFeedSource("mirror", srv.URL, 0).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].SourceID, got[i].SourceID)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].MSRP, got[i].MSRP)
		assert.Equal(t, want[i].SalePrice, got[i].SalePrice)
		assert.Equal(t, want[i].StockQty, got[i].StockQty)
	}

	resp, err := http.Get(srv.URL + "/inventory?page=0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
