package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cryptomonitor/internal/alerting"
	"cryptomonitor/internal/portfolio"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrPortfolioNotFound indicates no saved portfolio with that name.
	ErrPortfolioNotFound = errors.New("storage: portfolio not found")
)

const (
	upsertPortfolioSQL = `INSERT INTO portfolios (
        name,
        startup,
        holdings,
        updated_at
    ) VALUES (
        $1,$2,$3,now()
    )
    ON CONFLICT (name) DO UPDATE
    SET
        startup    = EXCLUDED.startup,
        holdings   = EXCLUDED.holdings,
        updated_at = now();`

	clearStartupPortfolioSQL = `UPDATE portfolios SET startup = FALSE WHERE name <> $1;`

	loadPortfolioSQL = `SELECT holdings, startup FROM portfolios WHERE name = $1;`

	loadStartupPortfolioSQL = `SELECT name, holdings FROM portfolios WHERE startup LIMIT 1;`

	listPortfoliosSQL = `SELECT
        name,
        startup,
        jsonb_array_length(holdings),
        updated_at
    FROM portfolios
    ORDER BY name;`

	deletePortfolioSQL = `DELETE FROM portfolios WHERE name = $1;`

	listAlertsSQL = `SELECT coin, currency, operator, threshold_price FROM alerts ORDER BY id;`

	insertAlertSQL = `INSERT INTO alerts (
        coin,
        currency,
        operator,
        threshold_price
    ) VALUES (
        $1,$2,$3,$4
    );`

	deleteAlertsSQL = `DELETE FROM alerts;`

	insertSnapshotSQL = `INSERT INTO portfolio_snapshots (
        taken_at,
        currency,
        total_paid,
        overall_value,
        positive_profit,
        negative_profit,
        holding_count
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (taken_at) DO UPDATE
    SET
        currency        = EXCLUDED.currency,
        total_paid      = EXCLUDED.total_paid,
        overall_value   = EXCLUDED.overall_value,
        positive_profit = EXCLUDED.positive_profit,
        negative_profit = EXCLUDED.negative_profit,
        holding_count   = EXCLUDED.holding_count;`

	listRecentSnapshotsSQL = `SELECT
        taken_at,
        currency,
        total_paid,
        overall_value,
        positive_profit,
        negative_profit,
        holding_count,
        created_at
    FROM portfolio_snapshots
    ORDER BY taken_at DESC
    LIMIT $1;`

	listSnapshotsBetweenSQL = `SELECT
        taken_at,
        currency,
        total_paid,
        overall_value,
        positive_profit,
        negative_profit,
        holding_count,
        created_at
    FROM portfolio_snapshots
    WHERE taken_at >= $1
      AND taken_at < $2
    ORDER BY taken_at;`

	countSnapshotsSQL = `SELECT COUNT(*) FROM portfolio_snapshots;`
)

// PortfolioStore persists named holding sets.
type PortfolioStore interface {
	SavePortfolio(ctx context.Context, name string, startup bool, holdings portfolio.Holdings) error
	LoadPortfolio(ctx context.Context, name string) (portfolio.Holdings, bool, error)
	LoadStartupPortfolio(ctx context.Context) (string, portfolio.Holdings, error)
	ListPortfolios(ctx context.Context) ([]PortfolioInfo, error)
	DeletePortfolio(ctx context.Context, name string) error
}

// AlertStore persists the active alert set.
type AlertStore interface {
	ListAlerts(ctx context.Context) ([]alerting.Alert, error)
	ReplaceAlerts(ctx context.Context, alerts []alerting.Alert) error
}

// SnapshotStore persists cycle aggregates for show/export.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, record SnapshotRecord) error
	ListRecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error)
	ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]SnapshotRecord, error)
	CountSnapshots(ctx context.Context) (int64, error)
}

// Store aggregates access to portfolios, alerts, and snapshot history.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SavePortfolio upserts a named portfolio; when startup is set, every
// other portfolio loses the flag.
func (s *Store) SavePortfolio(ctx context.Context, name string, startup bool, holdings portfolio.Holdings) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	payload, err := encodeHoldings(holdings)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save portfolio: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertPortfolioSQL, name, startup, payload); err != nil {
		return fmt.Errorf("upsert portfolio: %w", err)
	}
	if startup {
		if _, err := tx.Exec(ctx, clearStartupPortfolioSQL, name); err != nil {
			return fmt.Errorf("clear startup flags: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadPortfolio returns the holdings of a named portfolio and whether it
// is flagged to load at startup.
func (s *Store) LoadPortfolio(ctx context.Context, name string) (portfolio.Holdings, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	var startup bool
	if err := pool.QueryRow(ctx, loadPortfolioSQL, name).Scan(&payload, &startup); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrPortfolioNotFound
		}
		return nil, false, fmt.Errorf("load portfolio: %w", err)
	}

	holdings, err := decodeHoldings(payload)
	if err != nil {
		return nil, false, err
	}
	return holdings, startup, nil
}

// LoadStartupPortfolio returns the portfolio flagged to load at startup,
// or ErrPortfolioNotFound when none is flagged.
func (s *Store) LoadStartupPortfolio(ctx context.Context) (string, portfolio.Holdings, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", nil, err
	}

	var name string
	var payload []byte
	if err := pool.QueryRow(ctx, loadStartupPortfolioSQL).Scan(&name, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrPortfolioNotFound
		}
		return "", nil, fmt.Errorf("load startup portfolio: %w", err)
	}

	holdings, err := decodeHoldings(payload)
	if err != nil {
		return "", nil, err
	}
	return name, holdings, nil
}

// ListPortfolios enumerates saved portfolios.
func (s *Store) ListPortfolios(ctx context.Context) ([]PortfolioInfo, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listPortfoliosSQL)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var infos []PortfolioInfo
	for rows.Next() {
		var info PortfolioInfo
		if err := rows.Scan(&info.Name, &info.Startup, &info.Lots, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeletePortfolio removes a named portfolio.
func (s *Store) DeletePortfolio(ctx context.Context, name string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, deletePortfolioSQL, name)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// ListAlerts returns the persisted alert set in insertion order.
func (s *Store) ListAlerts(ctx context.Context) ([]alerting.Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listAlertsSQL)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []alerting.Alert
	for rows.Next() {
		var a alerting.Alert
		var operator string
		if err := rows.Scan(&a.Coin, &a.Currency, &operator, &a.ThresholdPrice); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Operator = alerting.Operator(operator)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// ReplaceAlerts swaps the persisted alert set for the given one in a
// single transaction, keeping the at-most-once semantics durable across
// restarts.
func (s *Store) ReplaceAlerts(ctx context.Context, alerts []alerting.Alert) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace alerts: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteAlertsSQL); err != nil {
		return fmt.Errorf("clear alerts: %w", err)
	}
	for _, a := range alerts {
		if _, err := tx.Exec(ctx, insertAlertSQL, a.Coin, a.Currency, string(a.Operator), a.ThresholdPrice); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// InsertSnapshot persists or updates one cycle aggregate.
func (s *Store) InsertSnapshot(ctx context.Context, record SnapshotRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, insertSnapshotSQL,
		record.TakenAt,
		record.Currency,
		record.TotalPaid,
		record.OverallValue,
		record.PositiveProfitSum,
		record.NegativeProfitSum,
		record.HoldingCount,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListRecentSnapshots returns the newest records first.
func (s *Store) ListRecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listRecentSnapshotsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// ListSnapshotsBetween returns records in [from, to) in time order.
func (s *Store) ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]SnapshotRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listSnapshotsBetweenSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// CountSnapshots returns the number of persisted cycle aggregates.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := pool.QueryRow(ctx, countSnapshotsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return count, nil
}

func scanSnapshots(rows pgx.Rows) ([]SnapshotRecord, error) {
	var records []SnapshotRecord
	for rows.Next() {
		var r SnapshotRecord
		if err := rows.Scan(
			&r.TakenAt,
			&r.Currency,
			&r.TotalPaid,
			&r.OverallValue,
			&r.PositiveProfitSum,
			&r.NegativeProfitSum,
			&r.HoldingCount,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

var (
	_ PortfolioStore = (*Store)(nil)
	_ AlertStore     = (*Store)(nil)
	_ SnapshotStore  = (*Store)(nil)
)
