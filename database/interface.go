package database

import (
	"context"
	"time"

	"github.com/jing2uo/tsanalyst/model"
)

type DataRepository interface {
	Connect() error
	Close() error

	InitSchema() error

	// SaveBars 按 (symbol, trade_date) 覆盖
	SaveBars(ctx context.Context, bars []model.DailyBar) error
	// SaveSnapshot 同一代码同一交易日只保留最新一条
	SaveSnapshot(ctx context.Context, rec model.SnapshotRecord) error

	GetLatestDate(ctx context.Context, tableName string, dateCol string) (time.Time, error)
	GetAllSymbols(ctx context.Context) ([]string, error)
	QueryBars(ctx context.Context, symbol string, startDate, endDate *time.Time) ([]model.DailyBar, error)
	QuerySnapshots(ctx context.Context, code string, limit int) ([]model.SnapshotRecord, error)
}
