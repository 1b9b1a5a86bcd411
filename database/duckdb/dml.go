package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jing2uo/tsanalyst/model"
)

// upsert 单事务内逐行写入
func upsert[T any](ctx context.Context, d *DuckDBDriver, meta *model.TableMeta, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duckdb begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertQuery(meta))
	if err != nil {
		return fmt.Errorf("duckdb prepare %s: %w", meta.TableName, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("duckdb upsert %s: %w", meta.TableName, err)
		}
	}

	return tx.Commit()
}

func (d *DuckDBDriver) SaveBars(ctx context.Context, bars []model.DailyBar) error {
	rows := make([]model.DailyBar, len(bars))
	for i, b := range bars {
		b.TradeDate = calendarDate(b.TradeDate)
		rows[i] = b
	}
	return upsert(ctx, d, model.TableDailyBars, rows)
}

func (d *DuckDBDriver) SaveSnapshot(ctx context.Context, rec model.SnapshotRecord) error {
	rec.TradeDate = calendarDate(rec.TradeDate)
	return upsert(ctx, d, model.TableSnapshots, []model.SnapshotRecord{rec})
}

// calendarDate 保留原时区下的日期, 转为 UTC 零点写入 DATE 列
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (d *DuckDBDriver) GetLatestDate(ctx context.Context, tableName string, dateCol string) (time.Time, error) {
	query := fmt.Sprintf("SELECT max(%s) AS latest FROM %s", dateCol, tableName)

	var latest sql.NullTime
	err := d.db.GetContext(ctx, &latest, query)
	if err != nil {
		return time.Time{}, err
	}

	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time, nil
}

func (d *DuckDBDriver) GetAllSymbols(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", model.TableDailyBars.TableName)

	var symbols []string
	err := d.db.SelectContext(ctx, &symbols, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}

	return symbols, nil
}

func (d *DuckDBDriver) QueryBars(ctx context.Context, symbol string, startDate, endDate *time.Time) ([]model.DailyBar, error) {
	conditions := []string{"symbol = ?"}
	args := []interface{}{symbol}

	if startDate != nil {
		conditions = append(conditions, "trade_date >= ?")
		args = append(args, *startDate)
	}
	if endDate != nil {
		conditions = append(conditions, "trade_date <= ?")
		args = append(args, *endDate)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s ORDER BY trade_date ASC`,
		strings.Join(model.TableDailyBars.ColumnNames(), ", "),
		model.TableDailyBars.TableName,
		strings.Join(conditions, " AND "),
	)

	var results []model.DailyBar
	if err := d.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}

	return results, nil
}

// QuerySnapshots 最新在前, limit <= 0 不限制
func (d *DuckDBDriver) QuerySnapshots(ctx context.Context, code string, limit int) ([]model.SnapshotRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE code = ? ORDER BY trade_date DESC",
		strings.Join(model.TableSnapshots.ColumnNames(), ", "),
		model.TableSnapshots.TableName,
	)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var results []model.SnapshotRecord
	if err := d.db.SelectContext(ctx, &results, query, code); err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", code, err)
	}

	return results, nil
}
