package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

const (
	DefaultHistoryDays = 90
	indexWindowDays    = 10

	// hk_basic 没有行业字段
	hkIndustry = "港股"
)

// Provider 上游数据接口, tushare.Client 满足
type Provider interface {
	Daily(ctx context.Context, tsCode, start, end string) ([]model.DailyBar, error)
	HKDaily(ctx context.Context, tsCode, start, end string) ([]model.DailyBar, error)
	IndexDaily(ctx context.Context, tsCode, start, end string) ([]model.DailyBar, error)
	DailyBasic(ctx context.Context, tsCode, tradeDate string) ([]model.ValuationRow, error)
	StockBasic(ctx context.Context, tsCode string) ([]model.BasicInfo, error)
	HKBasic(ctx context.Context, tsCode string) ([]model.BasicInfo, error)
	ListStocks(ctx context.Context) ([]model.BasicInfo, error)
	ListHKStocks(ctx context.Context) ([]model.BasicInfo, error)
}

// Router 按市场选择接口
type Router struct {
	p     Provider
	clock utils.Clock
	days  int
	log   zerolog.Logger
}

type Option func(*Router)

func WithClock(c utils.Clock) Option {
	return func(r *Router) { r.clock = c }
}

func WithHistoryDays(days int) Option {
	return func(r *Router) {
		if days > 0 {
			r.days = days
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(r *Router) { r.log = log.With().Str("component", "router").Logger() }
}

func NewRouter(p Provider, opts ...Option) *Router {
	r := &Router{
		p:     p,
		clock: utils.SystemClock{},
		days:  DefaultHistoryDays,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) window(days int) (string, string) {
	now := r.clock.Now()
	return utils.TradeDay(now.AddDate(0, 0, -days)), utils.TradeDay(now)
}

// Bars 最近 N 个自然日的日线, 顺序与上游一致
func (r *Router) Bars(ctx context.Context, code model.InstrumentCode) ([]model.DailyBar, error) {
	op, fetch := "daily", r.p.Daily
	if code.IsHK() {
		op, fetch = "hk_daily", r.p.HKDaily
	}

	start, end := r.window(r.days)
	bars, err := fetch(ctx, code.String(), start, end)
	if err != nil {
		return nil, fetchError(op, code.String(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s: %w", op, code, model.ErrNoData)
	}
	return bars, nil
}

// IndexBars 指数最近 10 个自然日
func (r *Router) IndexBars(ctx context.Context, tsCode string) ([]model.DailyBar, error) {
	start, end := r.window(indexWindowDays)
	bars, err := r.p.IndexDaily(ctx, tsCode, start, end)
	if err != nil {
		return nil, fetchError("index_daily", tsCode, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("index_daily %s: %w", tsCode, model.ErrNoData)
	}
	return bars, nil
}

// Valuation 当日估值, 无数据时回退一次到前一自然日
func (r *Router) Valuation(ctx context.Context, code model.InstrumentCode) (model.ValuationRow, model.FieldStatus, error) {
	if code.IsHK() {
		return model.ValuationRow{}, model.StatusUnsupported, nil
	}

	now := r.clock.Now()
	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		rows, err := r.p.DailyBasic(ctx, code.String(), utils.TradeDay(day))
		if err != nil {
			return model.ValuationRow{}, model.StatusFailed, fetchError("daily_basic", code.String(), err)
		}
		if len(rows) > 0 {
			return rows[0], model.StatusOK, nil
		}
		r.log.Debug().Str("code", code.String()).Str("trade_date", utils.TradeDay(day)).Msg("no daily_basic row")
	}
	return model.ValuationRow{}, model.StatusMissing, nil
}

// BasicInfo 名称和行业
func (r *Router) BasicInfo(ctx context.Context, code model.InstrumentCode) (model.BasicInfo, error) {
	op, fetch := "stock_basic", r.p.StockBasic
	if code.IsHK() {
		op, fetch = "hk_basic", r.p.HKBasic
	}

	infos, err := fetch(ctx, code.String())
	if err != nil {
		return model.BasicInfo{}, fetchError(op, code.String(), err)
	}
	if len(infos) == 0 {
		return model.BasicInfo{}, fmt.Errorf("%s %s: %w", op, code, model.ErrNoData)
	}

	info := infos[0]
	if code.IsHK() && info.Industry == "" {
		info.Industry = hkIndustry
	}
	return info, nil
}

// Fundamentals 各字段独立标注状态, 不返回错误
func (r *Router) Fundamentals(ctx context.Context, code model.InstrumentCode) *model.FundamentalSnapshot {
	snap := &model.FundamentalSnapshot{Code: code.String()}

	row, status, err := r.Valuation(ctx, code)
	switch status {
	case model.StatusOK:
		snap.ApplyValuation(row)
	case model.StatusFailed:
		snap.SetValuation(model.FailedMetric(err))
	case model.StatusUnsupported:
		snap.SetValuation(model.UnsupportedMetric())
	default:
		snap.SetValuation(model.MissingMetric())
	}

	info, err := r.BasicInfo(ctx, code)
	switch {
	case err == nil:
		snap.Name = model.OKText(info.Name)
		snap.Industry = model.OKText(info.Industry)
	case errors.Is(err, model.ErrNoData):
		snap.Name = model.Text{Status: model.StatusMissing}
		snap.Industry = model.Text{Status: model.StatusMissing}
	default:
		snap.Name = model.FailedText(err)
		snap.Industry = model.FailedText(err)
	}

	if snap.Degraded() {
		r.log.Warn().Str("code", code.String()).Msg("fundamentals partially failed")
	}
	return snap
}

// Universe 上市 A 股和港股列表, 港股失败时只返回 A 股
func (r *Router) Universe(ctx context.Context) ([]model.BasicInfo, []model.BasicInfo, error) {
	domestic, err := r.p.ListStocks(ctx)
	if err != nil {
		return nil, nil, fetchError("stock_basic", "*", err)
	}

	hk, err := r.p.ListHKStocks(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("hk_basic list unavailable")
		hk = nil
	}
	return domestic, hk, nil
}

type permissioner interface {
	IsPermission() bool
}

func fetchError(op, code string, err error) error {
	fe := &model.FetchError{Op: op, Code: code, Err: err}
	var p permissioner
	if errors.As(err, &p) {
		fe.Permission = p.IsPermission()
	}
	return fe
}
