package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jing2uo/tsanalyst/database"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

// History 查看持久化的快照, bars 为 true 时查看日线
func History(ctx context.Context, db database.DataRepository, w io.Writer, raw string, limit int, bars, asJSON bool) error {
	code, err := utils.Classify(raw)
	if err != nil {
		return err
	}
	if bars {
		return barHistory(ctx, db, w, code, limit, asJSON)
	}

	records, err := db.QuerySnapshots(ctx, code.String(), limit)
	if err != nil {
		return fmt.Errorf("failed to query snapshots: %w", err)
	}

	if asJSON {
		return encodeJSON(w, records)
	}

	if len(records) == 0 {
		fmt.Fprintf(w, "ℹ️ %s 暂无历史快照\n", code)
		return nil
	}

	fmt.Fprintf(w, "📅 %s 最近 %d 条快照\n", code, len(records))
	for _, r := range records {
		fmt.Fprintf(w, "   %s  收盘 %s  涨跌 %s%%  MA20 %s  RSI %s  PE %s  %s\n",
			r.TradeDate.Format("2006-01-02"), r.Close, r.PctChg, r.MA20, r.RSI, r.PETTM, r.Sentiment)
	}
	return nil
}

func barHistory(ctx context.Context, db database.DataRepository, w io.Writer, code model.InstrumentCode, limit int, asJSON bool) error {
	bars, err := db.QueryBars(ctx, code.String(), nil, nil)
	if err != nil {
		return err
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	if asJSON {
		return encodeJSON(w, bars)
	}

	latest, err := db.GetLatestDate(ctx, model.TableDailyBars.TableName, "trade_date")
	if err != nil {
		return fmt.Errorf("failed to get latest date: %w", err)
	}
	if len(bars) == 0 {
		fmt.Fprintf(w, "ℹ️ %s 暂无日线数据\n", code)
		return nil
	}

	fmt.Fprintf(w, "📅 数据库中日线数据的最新日期为 %s\n", latest.Format("2006-01-02"))
	for _, b := range bars {
		fmt.Fprintf(w, "   %s  开 %.2f  高 %.2f  低 %.2f  收 %.2f  涨跌 %.2f%%\n",
			b.TradeDate.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.PctChg)
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
