package model

import (
	"github.com/shopspring/decimal"
)

// FieldStatus 单个字段的获取状态
type FieldStatus string

const (
	StatusOK          FieldStatus = "ok"
	StatusUnsupported FieldStatus = "unsupported" // 该市场无此指标
	StatusFailed      FieldStatus = "failed"      // 上游调用失败
	StatusMissing     FieldStatus = "missing"     // 调用成功但无值
)

const unsupportedLabel = "N/A (Tushare源缺)"

// Metric 数值型基本面字段
type Metric struct {
	Value  Reading     `json:"value"`
	Unit   string      `json:"unit,omitempty"`
	Status FieldStatus `json:"status"`
	Cause  string      `json:"cause,omitempty"`
}

func OKMetric(v float64, precision int32, unit string) Metric {
	r := NewReading(v, precision)
	if !r.Valid {
		return Metric{Status: StatusMissing, Unit: unit}
	}
	return Metric{Value: r, Unit: unit, Status: StatusOK}
}

func UnsupportedMetric() Metric { return Metric{Status: StatusUnsupported} }

func MissingMetric() Metric { return Metric{Status: StatusMissing} }

func FailedMetric(err error) Metric {
	return Metric{Status: StatusFailed, Cause: err.Error()}
}

func (m Metric) String() string {
	switch m.Status {
	case StatusOK:
		return m.Value.String() + m.Unit
	case StatusUnsupported:
		return unsupportedLabel
	case StatusFailed:
		return "获取失败"
	default:
		return "N/A"
	}
}

// Text 文本型字段 (名称, 行业)
type Text struct {
	Value  string      `json:"value,omitempty"`
	Status FieldStatus `json:"status"`
	Cause  string      `json:"cause,omitempty"`
}

func OKText(v string) Text {
	if v == "" {
		return Text{Status: StatusMissing}
	}
	return Text{Value: v, Status: StatusOK}
}

func FailedText(err error) Text {
	return Text{Status: StatusFailed, Cause: err.Error()}
}

func (t Text) String() string {
	switch t.Status {
	case StatusOK:
		return t.Value
	case StatusFailed:
		return "获取失败"
	default:
		return "未知"
	}
}

// ValuationRow daily_basic 的一行, 缺失值为 nil
type ValuationRow struct {
	TradeDate    string
	TurnoverRate *float64
	PETTM        *float64
	PB           *float64
	TotalMV      *float64 // 万元
}

// BasicInfo stock_basic / hk_basic 的一行
type BasicInfo struct {
	TSCode   string `json:"ts_code"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	Market   string `json:"market,omitempty"`
	ListDate string `json:"list_date,omitempty"`
}

// FundamentalSnapshot 基本面快照
type FundamentalSnapshot struct {
	Code         string `json:"code"`
	TradeDate    string `json:"trade_date,omitempty"`
	Name         Text   `json:"name"`
	Industry     Text   `json:"industry"`
	TurnoverRate Metric `json:"turnover_rate"`
	PETTM        Metric `json:"pe_ttm"`
	PB           Metric `json:"pb"`
	TotalMV      Metric `json:"total_mv"`
}

// ApplyValuation 填充估值字段, 总市值换算为亿
func (f *FundamentalSnapshot) ApplyValuation(row ValuationRow) {
	f.TradeDate = row.TradeDate
	f.TurnoverRate = optionalMetric(row.TurnoverRate, 2, "%")
	f.PETTM = optionalMetric(row.PETTM, 2, "")
	f.PB = optionalMetric(row.PB, 2, "")
	if row.TotalMV == nil {
		f.TotalMV = MissingMetric()
	} else {
		yi, _ := decimal.NewFromFloat(*row.TotalMV).Div(decimal.NewFromInt(10000)).Float64()
		f.TotalMV = OKMetric(yi, 2, "亿")
	}
}

// SetValuation 对四个估值字段统一赋值
func (f *FundamentalSnapshot) SetValuation(m Metric) {
	f.TurnoverRate, f.PETTM, f.PB, f.TotalMV = m, m, m, m
}

// Degraded 存在调用失败的字段
func (f *FundamentalSnapshot) Degraded() bool {
	for _, m := range []Metric{f.TurnoverRate, f.PETTM, f.PB, f.TotalMV} {
		if m.Status == StatusFailed {
			return true
		}
	}
	return f.Name.Status == StatusFailed || f.Industry.Status == StatusFailed
}

func (f *FundamentalSnapshot) Fields() [][2]string {
	return [][2]string{
		{"名称", f.Name.String()},
		{"所属行业", f.Industry.String()},
		{"换手率", f.TurnoverRate.String()},
		{"PE(TTM)", f.PETTM.String()},
		{"PB", f.PB.String()},
		{"总市值", f.TotalMV.String()},
	}
}

func optionalMetric(v *float64, precision int32, unit string) Metric {
	if v == nil {
		return MissingMetric()
	}
	return OKMetric(*v, precision, unit)
}
