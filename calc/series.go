package calc

import (
	"fmt"
	"math"
	"sort"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	rsiPeriod  = 14
	bollPeriod = 20
	bollK      = 2.0
	volPeriod  = 20
)

// 展示精度
const (
	pricePrecision = 2
	macdPrecision  = 4
	volPrecision   = 4
)

// Series 每根 K 线对应的指标, 与 Bars 下标一一对应
type Series struct {
	Bars       []model.DailyBar
	MA5        []float64
	MA10       []float64
	MA20       []float64
	DIF        []float64
	DEA        []float64
	MACD       []float64
	RSI        []float64
	BollMid    []float64
	BollUpper  []float64
	BollLower  []float64
	Volatility []float64
}

// EnsureAscending 返回按交易日升序的副本, 上游数据为倒序
func EnsureAscending(bars []model.DailyBar) []model.DailyBar {
	sorted := make([]model.DailyBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})
	return sorted
}

// Compute 计算全部指标, 输入顺序任意
func Compute(bars []model.DailyBar) (*Series, error) {
	if len(bars) == 0 {
		return nil, model.ErrNoData
	}

	sorted := EnsureAscending(bars)
	closes := make([]float64, len(sorted))
	pcts := make([]float64, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
		pcts[i] = b.PctChg
	}

	s := &Series{
		Bars:       sorted,
		MA5:        ma(closes, 5),
		MA10:       ma(closes, 10),
		RSI:        rsi(closes, rsiPeriod),
		Volatility: rollingStd(pcts, volPeriod),
	}
	s.DIF, s.DEA, s.MACD = macd(closes, macdFast, macdSlow, macdSignal)
	s.BollMid, s.BollUpper, s.BollLower = bollinger(closes, bollPeriod, bollK)
	s.MA20 = s.BollMid

	return s, nil
}

func (s *Series) Len() int { return len(s.Bars) }

// Snapshot 最新一根 K 线的格式化指标
func (s *Series) Snapshot() model.IndicatorSnapshot {
	i := s.Len() - 1
	last := s.Bars[i]
	return model.IndicatorSnapshot{
		Code:       last.Symbol,
		TradeDate:  utils.TradeDay(last.TradeDate),
		Close:      model.NewReading(last.Close, pricePrecision),
		PctChg:     model.NewReading(last.PctChg, pricePrecision),
		Volume:     model.NewReading(last.Volume, 0),
		MA5:        model.NewReading(s.MA5[i], pricePrecision),
		MA10:       model.NewReading(s.MA10[i], pricePrecision),
		MA20:       model.NewReading(s.MA20[i], pricePrecision),
		MACD:       model.NewReading(s.DIF[i], macdPrecision),
		MACDSignal: model.NewReading(s.DEA[i], macdPrecision),
		MACDHist:   model.NewReading(s.MACD[i], macdPrecision),
		RSI:        model.NewReading(s.RSI[i], pricePrecision),
		BollUpper:  model.NewReading(s.BollUpper[i], pricePrecision),
		BollMid:    model.NewReading(s.BollMid[i], pricePrecision),
		BollLower:  model.NewReading(s.BollLower[i], pricePrecision),
		Volatility: model.NewReading(s.Volatility[i], volPrecision),
	}
}

// Rows 导出用, NaN 写为 nil
func (s *Series) Rows() []model.IndicatorRow {
	rows := make([]model.IndicatorRow, s.Len())
	for i, b := range s.Bars {
		rows[i] = model.IndicatorRow{
			Symbol:     b.Symbol,
			TradeDate:  b.TradeDate,
			Close:      optional(b.Close),
			PctChg:     optional(b.PctChg),
			Volume:     b.Volume,
			MA5:        optional(s.MA5[i]),
			MA10:       optional(s.MA10[i]),
			MA20:       optional(s.MA20[i]),
			DIF:        optional(s.DIF[i]),
			DEA:        optional(s.DEA[i]),
			MACD:       optional(s.MACD[i]),
			RSI:        optional(s.RSI[i]),
			BollUpper:  optional(s.BollUpper[i]),
			BollMid:    optional(s.BollMid[i]),
			BollLower:  optional(s.BollLower[i]),
			Volatility: optional(s.Volatility[i]),
		}
	}
	return rows
}

// Latest 便捷入口: 计算并取最新快照
func Latest(bars []model.DailyBar) (model.IndicatorSnapshot, error) {
	s, err := Compute(bars)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("compute indicators: %w", err)
	}
	return s.Snapshot(), nil
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
