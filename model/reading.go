package model

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// Insufficient 窗口未填满时的占位符, 与 0 区分
const Insufficient = "-"

// Reading 定点格式化的数值
type Reading struct {
	Value     float64
	Valid     bool
	Precision int32
}

// NewReading NaN 和 Inf 视为无效
func NewReading(v float64, precision int32) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{Precision: precision}
	}
	return Reading{Value: v, Valid: true, Precision: precision}
}

func (r Reading) String() string {
	if !r.Valid {
		return Insufficient
	}
	return decimal.NewFromFloat(r.Value).StringFixed(r.Precision)
}

func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// IndicatorSnapshot 最新一根 K 线的指标
type IndicatorSnapshot struct {
	Code       string  `json:"code"`
	TradeDate  string  `json:"trade_date"`
	Close      Reading `json:"close"`
	PctChg     Reading `json:"pct_chg"`
	Volume     Reading `json:"volume"`
	MA5        Reading `json:"ma5"`
	MA10       Reading `json:"ma10"`
	MA20       Reading `json:"ma20"`
	MACD       Reading `json:"macd_dif"`
	MACDSignal Reading `json:"macd_dea"`
	MACDHist   Reading `json:"macd_hist"`
	RSI        Reading `json:"rsi14"`
	BollUpper  Reading `json:"boll_upper"`
	BollMid    Reading `json:"boll_mid"`
	BollLower  Reading `json:"boll_lower"`
	Volatility Reading `json:"volatility"`
}

// VolumeLots 成交量, 单位万手
func (s IndicatorSnapshot) VolumeLots() string {
	if !s.Volume.Valid {
		return Insufficient
	}
	return decimal.NewFromFloat(s.Volume.Value).Div(decimal.NewFromInt(10000)).StringFixed(2) + "万手"
}

// Fields 按展示顺序返回 (名称, 值)
func (s IndicatorSnapshot) Fields() [][2]string {
	return [][2]string{
		{"收盘价", s.Close.String()},
		{"涨跌幅", percent(s.PctChg)},
		{"成交量", s.VolumeLots()},
		{"5日均线", s.MA5.String()},
		{"10日均线", s.MA10.String()},
		{"20日均线", s.MA20.String()},
		{"MACD DIF", s.MACD.String()},
		{"MACD DEA", s.MACDSignal.String()},
		{"MACD", s.MACDHist.String()},
		{"RSI", s.RSI.String()},
		{"布林上轨", s.BollUpper.String()},
		{"布林中轨", s.BollMid.String()},
		{"布林下轨", s.BollLower.String()},
		{"波动率", s.Volatility.String()},
	}
}

func percent(r Reading) string {
	if !r.Valid {
		return Insufficient
	}
	return r.String() + "%"
}
