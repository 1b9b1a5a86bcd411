package tushare

import (
	"context"
	"fmt"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

var (
	barFields       = []string{"ts_code", "trade_date", "open", "high", "low", "close", "pre_close", "pct_chg", "vol", "amount"}
	valuationFields = []string{"ts_code", "trade_date", "turnover_rate", "pe_ttm", "pb", "total_mv"}
	stockFields     = []string{"ts_code", "name", "industry", "market", "list_date"}
	hkFields        = []string{"ts_code", "name", "market", "list_date"}
)

// Daily A 股日线
func (c *Client) Daily(ctx context.Context, tsCode, start, end string) ([]model.DailyBar, error) {
	return c.bars(ctx, "daily", tsCode, start, end)
}

// HKDaily 港股日线, 需要单独开通
func (c *Client) HKDaily(ctx context.Context, tsCode, start, end string) ([]model.DailyBar, error) {
	return c.bars(ctx, "hk_daily", tsCode, start, end)
}

// IndexDaily 指数日线
func (c *Client) IndexDaily(ctx context.Context, tsCode, start, end string) ([]model.DailyBar, error) {
	return c.bars(ctx, "index_daily", tsCode, start, end)
}

func (c *Client) bars(ctx context.Context, api, tsCode, start, end string) ([]model.DailyBar, error) {
	t, err := c.Query(ctx, api, map[string]string{
		"ts_code":    tsCode,
		"start_date": start,
		"end_date":   end,
	}, barFields)
	if err != nil {
		return nil, err
	}

	if t.Len() > 0 {
		for _, f := range []string{"trade_date", "close"} {
			if !t.Has(f) {
				return nil, fmt.Errorf("tushare %s: response missing field %q", api, f)
			}
		}
	}

	bars := make([]model.DailyBar, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		date, err := utils.ParseTradeDay(r.Str("trade_date"))
		if err != nil {
			return nil, fmt.Errorf("tushare %s: bad trade_date %q: %w", api, r.Str("trade_date"), err)
		}
		bars = append(bars, model.DailyBar{
			Symbol:    r.Str("ts_code"),
			TradeDate: date,
			Open:      r.FloatOr("open"),
			High:      r.FloatOr("high"),
			Low:       r.FloatOr("low"),
			Close:     r.FloatOrNaN("close"),
			PreClose:  r.FloatOr("pre_close"),
			PctChg:    r.FloatOrNaN("pct_chg"),
			Volume:    r.FloatOr("vol"),
			Amount:    r.FloatOr("amount"),
		})
	}
	return bars, nil
}

// DailyBasic 单日估值指标
func (c *Client) DailyBasic(ctx context.Context, tsCode, tradeDate string) ([]model.ValuationRow, error) {
	t, err := c.Query(ctx, "daily_basic", map[string]string{
		"ts_code":    tsCode,
		"trade_date": tradeDate,
	}, valuationFields)
	if err != nil {
		return nil, err
	}

	rows := make([]model.ValuationRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		rows = append(rows, model.ValuationRow{
			TradeDate:    r.Str("trade_date"),
			TurnoverRate: r.FloatPtr("turnover_rate"),
			PETTM:        r.FloatPtr("pe_ttm"),
			PB:           r.FloatPtr("pb"),
			TotalMV:      r.FloatPtr("total_mv"),
		})
	}
	return rows, nil
}

// StockBasic 单只 A 股基础信息
func (c *Client) StockBasic(ctx context.Context, tsCode string) ([]model.BasicInfo, error) {
	return c.basics(ctx, "stock_basic", map[string]string{"ts_code": tsCode}, stockFields)
}

// HKBasic 单只港股基础信息, 接口不提供行业
func (c *Client) HKBasic(ctx context.Context, tsCode string) ([]model.BasicInfo, error) {
	return c.basics(ctx, "hk_basic", map[string]string{"ts_code": tsCode}, hkFields)
}

// ListStocks 全部上市 A 股
func (c *Client) ListStocks(ctx context.Context) ([]model.BasicInfo, error) {
	return c.basics(ctx, "stock_basic", map[string]string{"list_status": "L"}, stockFields)
}

// ListHKStocks 全部上市港股
func (c *Client) ListHKStocks(ctx context.Context) ([]model.BasicInfo, error) {
	return c.basics(ctx, "hk_basic", map[string]string{"list_status": "L"}, hkFields)
}

func (c *Client) basics(ctx context.Context, api string, params map[string]string, fields []string) ([]model.BasicInfo, error) {
	t, err := c.Query(ctx, api, params, fields)
	if err != nil {
		return nil, err
	}

	infos := make([]model.BasicInfo, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		infos = append(infos, model.BasicInfo{
			TSCode:   r.Str("ts_code"),
			Name:     r.Str("name"),
			Industry: r.Str("industry"),
			Market:   r.Str("market"),
			ListDate: r.Str("list_date"),
		})
	}
	return infos, nil
}
