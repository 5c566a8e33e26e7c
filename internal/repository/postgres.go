package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"sellerctl/internal/model"
)

// SandboxPlatform is a marketplace backed by local PostgreSQL tables.
// It lets the whole pipeline run end to end without a real seller account.
type SandboxPlatform struct {
	db         *sqlx.DB
	priceFloor float64
	timeout    time.Duration
}

// NewSandboxPlatform connects to PostgreSQL and returns the sandbox marketplace
func NewSandboxPlatform(dsn string, maxConn, maxIdleConn int, priceFloor float64) (*SandboxPlatform, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SandboxPlatform{db: db, priceFloor: priceFloor}, nil
}

// SetTimeout bounds every platform call. Zero leaves the caller's deadline alone.
func (r *SandboxPlatform) SetTimeout(d time.Duration) *SandboxPlatform {
	r.timeout = d
	return r
}

func (r *SandboxPlatform) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Close closes the database connection
func (r *SandboxPlatform) Close() error {
	return r.db.Close()
}

const sandboxSchema = `
CREATE TABLE IF NOT EXISTS sandbox_listings (
	item_id       TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	price         NUMERIC(12,2) NOT NULL,
	quantity      INTEGER NOT NULL DEFAULT 1,
	watcher_count INTEGER NOT NULL DEFAULT 0,
	bid_count     INTEGER NOT NULL DEFAULT 0,
	start_time    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	condition     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'active',
	end_reason    TEXT,
	ended_at      TIMESTAMPTZ,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sandbox_watcher_offers (
	id             BIGSERIAL PRIMARY KEY,
	item_id        TEXT NOT NULL REFERENCES sandbox_listings(item_id),
	discount_type  TEXT NOT NULL,
	discount_value NUMERIC(12,2) NOT NULL,
	offer_price    NUMERIC(12,2) NOT NULL,
	watcher_count  INTEGER NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sandbox_fulfillment (
	id                 INTEGER PRIMARY KEY CHECK (id = 1),
	handling_time      INTEGER,
	vacation_mode      BOOLEAN,
	auto_reply_message TEXT,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the sandbox tables if they do not exist
func (r *SandboxPlatform) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sandboxSchema); err != nil {
		return fmt.Errorf("failed to create sandbox schema: %w", err)
	}
	return nil
}

// Seed inserts or replaces listings
func (r *SandboxPlatform) Seed(ctx context.Context, items []model.Item) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO sandbox_listings (item_id, title, price, watcher_count, bid_count, start_time, condition, status)
		VALUES (:item_id, :title, :price, :watcher_count, :bid_count, :start_time, :condition, 'active')
		ON CONFLICT (item_id) DO UPDATE SET
			title = EXCLUDED.title, price = EXCLUDED.price,
			watcher_count = EXCLUDED.watcher_count, bid_count = EXCLUDED.bid_count,
			start_time = EXCLUDED.start_time, condition = EXCLUDED.condition,
			status = 'active', end_reason = NULL, ended_at = NULL, updated_at = NOW()
	`
	for _, it := range items {
		if it.StartTime.IsZero() {
			it.StartTime = time.Now()
		}
		if _, err := tx.NamedExecContext(ctx, q, it); err != nil {
			return fmt.Errorf("seed %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// ListActiveItems returns active listings, oldest first
func (r *SandboxPlatform) ListActiveItems(ctx context.Context) ([]model.Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT item_id, title, price::float8 AS price, watcher_count, bid_count, start_time, condition
		FROM sandbox_listings
		WHERE status = 'active'
		ORDER BY start_time, item_id
	`
	items := []model.Item{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return items, nil
}

// SetPrice revises the price of an active listing
func (r *SandboxPlatform) SetPrice(ctx context.Context, itemID string, price float64) (model.Outcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if price <= 0 {
		return model.Outcome{Error: "Price must be greater than zero"}, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sandbox_listings SET price = $1, updated_at = NOW() WHERE item_id = $2 AND status = 'active'`,
		price, itemID)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to update price: %w", err)
	}
	return affected(res, itemID)
}

// EndItem ends an active listing
func (r *SandboxPlatform) EndItem(ctx context.Context, itemID, reason string) (model.Outcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE sandbox_listings
		SET status = 'ended', end_reason = $1, ended_at = NOW(), updated_at = NOW()
		WHERE item_id = $2 AND status = 'active'
	`, reason, itemID)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to end listing: %w", err)
	}
	return affected(res, itemID)
}

// DuplicateItem relists a copy of any listing, active or ended, under a new ID
func (r *SandboxPlatform) DuplicateItem(ctx context.Context, itemID string, overrides model.DuplicateOverrides) (model.Outcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var src struct {
		Title     string  `db:"title"`
		Price     float64 `db:"price"`
		Quantity  int     `db:"quantity"`
		Condition string  `db:"condition"`
	}
	err = tx.GetContext(ctx, &src,
		`SELECT title, price::float8 AS price, quantity, condition FROM sandbox_listings WHERE item_id = $1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Outcome{Error: fmt.Sprintf("Listing %s not found", itemID)}, nil
	}
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to load source listing: %w", err)
	}

	if overrides.Price != nil {
		if *overrides.Price <= 0 {
			return model.Outcome{Error: "Price override must be greater than zero"}, nil
		}
		src.Price = *overrides.Price
	}
	if overrides.Quantity != nil {
		if *overrides.Quantity < 1 {
			return model.Outcome{Error: "Quantity override must be at least 1"}, nil
		}
		src.Quantity = *overrides.Quantity
	}

	newID := "sb-" + uuid.NewString()[:8]
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sandbox_listings (item_id, title, price, quantity, condition, start_time, status)
		VALUES ($1, $2, $3, $4, $5, NOW(), 'active')
	`, newID, src.Title, src.Price, src.Quantity, src.Condition)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to insert duplicate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Outcome{}, fmt.Errorf("failed to commit duplicate: %w", err)
	}
	return model.Outcome{Success: true, NewItemID: newID}, nil
}

// SendWatcherOffer records a targeted offer to everyone watching a listing
func (r *SandboxPlatform) SendWatcherOffer(ctx context.Context, itemID string, discount model.WatcherDiscount) (model.Outcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var item struct {
		Price    float64 `db:"price"`
		Watchers int     `db:"watcher_count"`
	}
	err := r.db.GetContext(ctx, &item,
		`SELECT price::float8 AS price, watcher_count FROM sandbox_listings WHERE item_id = $1 AND status = 'active'`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Outcome{Error: fmt.Sprintf("Listing %s is not active", itemID)}, nil
	}
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to load listing: %w", err)
	}
	if item.Watchers == 0 {
		return model.Outcome{Error: fmt.Sprintf("Listing %s has no watchers", itemID)}, nil
	}

	offer := item.Price - discount.Value
	if discount.Type == model.AdjustPercentage {
		offer = item.Price * (1 - discount.Value/100)
	}
	if offer < r.priceFloor {
		offer = r.priceFloor
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sandbox_watcher_offers (item_id, discount_type, discount_value, offer_price, watcher_count)
		VALUES ($1, $2, $3, ROUND($4::numeric, 2), $5)
	`, itemID, discount.Type, discount.Value, offer, item.Watchers)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to record offer: %w", err)
	}
	return model.Outcome{Success: true}, nil
}

// UpdateFulfillment merges the supplied settings into the account row
func (r *SandboxPlatform) UpdateFulfillment(ctx context.Context, s model.FulfillmentSettings) (model.Outcome, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if s.IsEmpty() {
		return model.Outcome{Error: "No fulfillment settings supplied"}, nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sandbox_fulfillment (id, handling_time, vacation_mode, auto_reply_message)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			handling_time      = COALESCE(EXCLUDED.handling_time, sandbox_fulfillment.handling_time),
			vacation_mode      = COALESCE(EXCLUDED.vacation_mode, sandbox_fulfillment.vacation_mode),
			auto_reply_message = COALESCE(EXCLUDED.auto_reply_message, sandbox_fulfillment.auto_reply_message),
			updated_at         = NOW()
	`, s.HandlingTime, s.VacationMode, s.AutoReplyMessage)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to update fulfillment: %w", err)
	}
	return model.Outcome{Success: true}, nil
}

// Fulfillment returns the current account settings
func (r *SandboxPlatform) Fulfillment(ctx context.Context) (model.FulfillmentSettings, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var row struct {
		HandlingTime     sql.NullInt64  `db:"handling_time"`
		VacationMode     sql.NullBool   `db:"vacation_mode"`
		AutoReplyMessage sql.NullString `db:"auto_reply_message"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT handling_time, vacation_mode, auto_reply_message FROM sandbox_fulfillment WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FulfillmentSettings{}, nil
	}
	if err != nil {
		return model.FulfillmentSettings{}, fmt.Errorf("failed to load fulfillment: %w", err)
	}

	var s model.FulfillmentSettings
	if row.HandlingTime.Valid {
		v := int(row.HandlingTime.Int64)
		s.HandlingTime = &v
	}
	if row.VacationMode.Valid {
		s.VacationMode = &row.VacationMode.Bool
	}
	if row.AutoReplyMessage.Valid {
		s.AutoReplyMessage = &row.AutoReplyMessage.String
	}
	return s, nil
}

func affected(res sql.Result, itemID string) (model.Outcome, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.Outcome{Error: fmt.Sprintf("Listing %s is not active", itemID)}, nil
	}
	return model.Outcome{Success: true}, nil
}
