package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fxpipe/internal/artifact"
	"fxpipe/internal/fx"
	"fxpipe/internal/pipeline"
	"fxpipe/internal/services"
)

// Summary describes one export.
type Summary struct {
	Pairs       int
	MonthlyRows int
	MissingRows int
	ExportedAt  time.Time
}

// Load replaces the database contents with every monthly statistics
// artifact and the global missing-data report found in store. A store
// without a missing-data report exports statistics only.
func (d *DB) Load(ctx context.Context, store *artifact.Store, now time.Time) (Summary, error) {
	keys, err := store.List("", pipeline.MonthlyStatsSuffix)
	if err != nil {
		return Summary{}, err
	}
	var stats []fx.MonthlyStat
	pairs := 0
	for _, key := range keys {
		if _, err := fx.ParsePair(strings.TrimSuffix(key, pipeline.MonthlyStatsSuffix)); err != nil {
			continue
		}
		table, err := store.Read(key)
		if err != nil {
			return Summary{}, err
		}
		part, err := fx.DecodeMonthlyStats(table)
		if err != nil {
			return Summary{}, fmt.Errorf("%s: %w", key, err)
		}
		stats = append(stats, part...)
		pairs++
	}

	var missing []fx.MissingMonth
	table, err := store.Read(pipeline.KeyMissingData)
	switch {
	case errors.Is(err, services.ErrNotFound):
	case err != nil:
		return Summary{}, err
	default:
		if missing, err = fx.DecodeMissingMonths(table); err != nil {
			return Summary{}, fmt.Errorf("%s: %w", pipeline.KeyMissingData, err)
		}
	}

	summary := Summary{Pairs: pairs, MonthlyRows: len(stats), MissingRows: len(missing), ExportedAt: now.UTC()}
	err = retryOnBusy(ctx, func() error {
		return d.replace(ctx, store.Root(), stats, missing, summary)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("export: %w", err)
	}
	return summary, nil
}

func (d *DB) replace(ctx context.Context, root string, stats []fx.MonthlyStat, missing []fx.MissingMonth, summary Summary) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM monthly_stats", "DELETE FROM missing_months"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}
	if err := insertStats(ctx, tx, stats); err != nil {
		return err
	}
	if err := insertMissing(ctx, tx, missing); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exports (exported_at, artifact_dir, pairs, monthly_rows, missing_rows) VALUES (?, ?, ?, ?, ?)`,
		summary.ExportedAt.Format(time.RFC3339), root, summary.Pairs, summary.MonthlyRows, summary.MissingRows,
	); err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return tx.Commit()
}

func insertStats(ctx context.Context, tx *sql.Tx, stats []fx.MonthlyStat) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO monthly_stats (currency_pair, month, high, low, average) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare monthly insert: %w", err)
	}
	defer stmt.Close()
	for _, s := range stats {
		if _, err := stmt.ExecContext(ctx, s.Pair.String(), s.Month.String(), s.High.String(), s.Low.String(), s.Average.Round(fx.AveragePlaces).String()); err != nil {
			return fmt.Errorf("insert monthly %s %s: %w", s.Pair, s.Month, err)
		}
	}
	return nil
}

func insertMissing(ctx context.Context, tx *sql.Tx, missing []fx.MissingMonth) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO missing_months (currency_pair, month) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare missing insert: %w", err)
	}
	defer stmt.Close()
	for _, m := range missing {
		if _, err := stmt.ExecContext(ctx, m.Pair.String(), m.Month.String()); err != nil {
			return fmt.Errorf("insert missing %s %s: %w", m.Pair, m.Month, err)
		}
	}
	return nil
}

// MissingMonths returns the exported missing months ordered by pair and month.
func (d *DB) MissingMonths(ctx context.Context) ([]fx.MissingMonth, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT currency_pair, month FROM missing_months ORDER BY currency_pair, month`)
	if err != nil {
		return nil, fmt.Errorf("query missing months: %w", err)
	}
	defer rows.Close()
	var out []fx.MissingMonth
	for rows.Next() {
		var pairText, monthText string
		if err := rows.Scan(&pairText, &monthText); err != nil {
			return nil, fmt.Errorf("scan missing month: %w", err)
		}
		pair, err := fx.ParsePair(pairText)
		if err != nil {
			return nil, err
		}
		month, err := fx.ParseMonth(monthText)
		if err != nil {
			return nil, err
		}
		out = append(out, fx.MissingMonth{Pair: pair, Month: month})
	}
	return out, rows.Err()
}

// MonthlyStats returns the exported statistics of pair ordered by month.
func (d *DB) MonthlyStats(ctx context.Context, pair fx.Pair) ([]fx.MonthlyStat, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT month, high, low, average FROM monthly_stats WHERE currency_pair = ? ORDER BY month`, pair.String())
	if err != nil {
		return nil, fmt.Errorf("query monthly stats: %w", err)
	}
	defer rows.Close()
	var out []fx.MonthlyStat
	for rows.Next() {
		var monthText, high, low, average string
		if err := rows.Scan(&monthText, &high, &low, &average); err != nil {
			return nil, fmt.Errorf("scan monthly stat: %w", err)
		}
		stat := fx.MonthlyStat{Pair: pair}
		if stat.Month, err = fx.ParseMonth(monthText); err != nil {
			return nil, err
		}
		if stat.High, err = fx.ParsePrice(high); err != nil {
			return nil, err
		}
		if stat.Low, err = fx.ParsePrice(low); err != nil {
			return nil, err
		}
		if stat.Average, err = fx.ParsePrice(average); err != nil {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

// ExportCount returns how many exports the database has recorded.
func (d *DB) ExportCount(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM exports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exports: %w", err)
	}
	return n, nil
}
