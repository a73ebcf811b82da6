package models

import "time"

// FeedRecord is one row as delivered by an inventory source, before any
// identity has been derived. Sources map their own formats into this.
type FeedRecord struct {
	Source      string   `json:"source"`
	SourceID    string   `json:"source_id"`   // sku / stock number within the source
	Description string   `json:"description"` // free-form model description
	Features    []string `json:"features,omitempty"`
	MSRP        float64  `json:"msrp,omitempty"`
	SalePrice   float64  `json:"sale_price,omitempty"`
	StockQty    int      `json:"stock_qty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// MotorCanonical is the merged, keyed form of a motor written to the
// catalog. All sources are folded into this before persisting.
type MotorCanonical struct {
	ModelKey    string            `json:"model_key"`
	Family      string            `json:"family"`       // coarse family token
	MotorFamily string            `json:"motor_family"` // marketing taxonomy
	Horsepower  *float64          `json:"horsepower,omitempty"`
	EFI         bool              `json:"efi"`
	Rigging     string            `json:"rigging,omitempty"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
	Features    []string          `json:"features,omitempty"`
	MSRP        float64           `json:"msrp,omitempty"`
	SalePrice   float64           `json:"sale_price,omitempty"`
	StockQty    int               `json:"stock_qty"`
	ImageURL    string            `json:"image_url,omitempty"`
	SourceIDs   map[string]string `json:"source_ids,omitempty"` // e.g. {"dealer_csv": "SKU-1"}
}

// MotorDB is a catalog row as read back from the store.
type MotorDB struct {
	MotorCanonical
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncRun records one ingestion pass.
type SyncRun struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Status     string     `json:"status"` // running, ok, failed
	Fetched    int        `json:"fetched"`
	Upserted   int        `json:"upserted"`
	Dropped    int        `json:"dropped"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
