package motor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"motorhub/pkg/database"
	"motorhub/pkg/models"
	"motorhub/pkg/motorid"
)

var ErrNotFound = errors.New("motor not found")

type Repo struct {
	DB *database.DB
}

type ListQuery struct {
	Q           string // keyword search in display name / description / key
	MotorFamily string
	MinHP       float64
	MaxHP       float64
	EFI         *bool
	InStock     bool
	Limit       int
	Offset      int
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

const motorColumns = `model_key, slug, family, motor_family, horsepower, efi, rigging, display_name,
	description, features, msrp, sale_price, stock_qty, image_url, source_ids, updated_at`

// Upsert writes motors keyed by model_key in one transaction.
func (r *Repo) Upsert(ctx context.Context, motors []models.MotorCanonical) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.DB.Rebind(`
		INSERT INTO motors (`+motorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_key) DO UPDATE SET
		  slug = excluded.slug,
		  family = excluded.family,
		  motor_family = excluded.motor_family,
		  horsepower = excluded.horsepower,
		  efi = excluded.efi,
		  rigging = excluded.rigging,
		  display_name = excluded.display_name,
		  description = excluded.description,
		  features = excluded.features,
		  msrp = excluded.msrp,
		  sale_price = excluded.sale_price,
		  stock_qty = excluded.stock_qty,
		  image_url = excluded.image_url,
		  source_ids = excluded.source_ids,
		  updated_at = excluded.updated_at
	`))
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range motors {
		if m.ModelKey == "" {
			continue
		}
		features, err := json.Marshal(nonNil(m.Features))
		if err != nil {
			return fmt.Errorf("marshal features for %s: %w", m.ModelKey, err)
		}
		sourceIDs, err := json.Marshal(m.SourceIDs)
		if err != nil {
			return fmt.Errorf("marshal source ids for %s: %w", m.ModelKey, err)
		}

		var hp sql.NullFloat64
		if m.Horsepower != nil {
			hp = sql.NullFloat64{Float64: *m.Horsepower, Valid: true}
		}

		if _, err := stmt.ExecContext(
			ctx,
			m.ModelKey,
			motorid.Slug(m.ModelKey),
			m.Family,
			m.MotorFamily,
			hp,
			m.EFI,
			m.Rigging,
			m.DisplayName,
			m.Description,
			string(features),
			m.MSRP,
			m.SalePrice,
			m.StockQty,
			m.ImageURL,
			string(sourceIDs),
			now,
		); err != nil {
			return fmt.Errorf("exec upsert for %s: %w", m.ModelKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByKey accepts either a model key or its share-link slug.
func (r *Repo) GetByKey(ctx context.Context, keyOrSlug string) (*models.MotorDB, error) {
	key := motorid.KeyFromSlug(keyOrSlug)
	row := r.DB.QueryRowContext(ctx, r.DB.Rebind(`
		SELECT `+motorColumns+`
		FROM motors
		WHERE model_key = ?
	`), key)

	m, err := scanMotor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan getByKey: %w", err)
	}
	return m, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	row := r.DB.QueryRowContext(ctx, r.DB.Rebind(sqlStr), args...)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.MotorDB, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, r.DB.Rebind(sqlStr), args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.MotorDB, 0, clampLimit(q.Limit))
	for rows.Next() {
		m, err := scanMotor(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMotor(s scanner) (*models.MotorDB, error) {
	var (
		m         models.MotorDB
		hp        sql.NullFloat64
		features  string
		sourceIDs string
	)
	if err := s.Scan(
		&m.ModelKey, &m.Slug, &m.Family, &m.MotorFamily, &hp, &m.EFI, &m.Rigging, &m.DisplayName,
		&m.Description, &features, &m.MSRP, &m.SalePrice, &m.StockQty, &m.ImageURL, &sourceIDs, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if hp.Valid {
		v := hp.Float64
		m.Horsepower = &v
	}
	_ = json.Unmarshal([]byte(features), &m.Features)
	_ = json.Unmarshal([]byte(sourceIDs), &m.SourceIDs)
	return &m, nil
}

// buildListSQL builds either COUNT(*) or the SELECT list.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + motorColumns + ` FROM motors`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM motors`
	}

	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, "(LOWER(display_name) LIKE ? OR LOWER(description) LIKE ? OR slug LIKE ?)")
		like := "%" + strings.ToLower(kw) + "%"
		args = append(args, like, like, like)
	}
	if f := strings.TrimSpace(q.MotorFamily); f != "" {
		where = append(where, "motor_family = ?")
		args = append(args, f)
	}
	if q.MinHP > 0 {
		where = append(where, "horsepower >= ?")
		args = append(args, q.MinHP)
	}
	if q.MaxHP > 0 {
		where = append(where, "horsepower <= ?")
		args = append(args, q.MaxHP)
	}
	if q.EFI != nil {
		where = append(where, "efi = ?")
		args = append(args, *q.EFI)
	}
	if q.InStock {
		where = append(where, "stock_qty > 0")
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY horsepower ASC, model_key ASC"
		sqlStr += " LIMIT ? OFFSET ?"
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, clampLimit(q.Limit), offset)
	}

	return sqlStr, args
}

// PageLimit is the limit List actually applies.
func (q ListQuery) PageLimit() int {
	return clampLimit(q.Limit)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
