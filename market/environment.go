package market

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

const (
	DomesticIndex = "399300.SZ"
	HKIndex       = "HSI"
)

var (
	indexNames = map[string]string{
		DomesticIndex: "沪深300",
		HKIndex:       "恒生指数",
	}

	upper = decimal.NewFromInt(1)
	lower = decimal.NewFromInt(-1)
)

// IndexSource source.Router 满足
type IndexSource interface {
	IndexBars(ctx context.Context, tsCode string) ([]model.DailyBar, error)
}

type Aggregator struct {
	src IndexSource
	log zerolog.Logger
}

func NewAggregator(src IndexSource, log zerolog.Logger) *Aggregator {
	return &Aggregator{src: src, log: log.With().Str("component", "market").Logger()}
}

// Classify 按两位小数后的涨跌幅分档, ±1.00 为中性, NaN 视为中性
func Classify(pct float64) model.Sentiment {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return model.SentimentNeutral
	}
	d := decimal.NewFromFloat(pct).Round(2)
	switch {
	case d.GreaterThan(upper):
		return model.SentimentOptimistic
	case d.LessThan(lower):
		return model.SentimentPessimistic
	default:
		return model.SentimentNeutral
	}
}

// ReferenceIndex 港股看恒指, 其余看沪深300
func ReferenceIndex(code model.InstrumentCode) string {
	if code.IsHK() {
		return HKIndex
	}
	return DomesticIndex
}

// Environment 恒指无数据或失败时回退到沪深300, 全部失败时为中性
func (a *Aggregator) Environment(ctx context.Context, code model.InstrumentCode) model.MarketEnvironment {
	candidates := []string{DomesticIndex}
	if code.IsHK() {
		candidates = []string{HKIndex, DomesticIndex}
	}

	var lastErr error
	for _, idx := range candidates {
		bars, err := a.src.IndexBars(ctx, idx)
		if err != nil {
			lastErr = err
			a.log.Warn().Str("index", idx).Err(err).Msg("index unavailable")
			continue
		}

		latest := newest(bars)
		if math.IsNaN(latest.PctChg) {
			lastErr = fmt.Errorf("%s %s pct_chg missing: %w", idx, utils.TradeDay(latest.TradeDate), model.ErrNoData)
			a.log.Warn().Str("index", idx).Err(lastErr).Msg("index unavailable")
			continue
		}
		pct := model.NewReading(latest.PctChg, 2)
		return model.MarketEnvironment{
			IndexCode: idx,
			IndexName: indexNames[idx],
			TradeDate: utils.TradeDay(latest.TradeDate),
			PctChg:    pct,
			Sentiment: Classify(latest.PctChg),
			Status:    model.StatusOK,
		}
	}

	env := model.MarketEnvironment{
		IndexCode: ReferenceIndex(code),
		IndexName: indexNames[ReferenceIndex(code)],
		Sentiment: model.SentimentNeutral,
		Status:    model.StatusFailed,
	}
	if lastErr != nil {
		env.Cause = lastErr.Error()
	}
	return env
}

// newest 按日期取最新, 不依赖上游顺序
func newest(bars []model.DailyBar) model.DailyBar {
	latest := bars[0]
	for _, b := range bars[1:] {
		if b.TradeDate.After(latest.TradeDate) {
			latest = b
		}
	}
	return latest
}
