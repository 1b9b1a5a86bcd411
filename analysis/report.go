package analysis

import (
	"errors"
	"time"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

// Outcome 行情部分的结果
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeNoData      Outcome = "no_data"
	OutcomeFetchFailed Outcome = "fetch_failed"
)

const (
	guidanceNoData   = "未查询到行情数据，请检查代码是否正确"
	guidanceHKTier   = "港股数据需要 Tushare 2000 积分以上权限"
	guidanceFailed   = "数据获取失败，请稍后重试"
	guidancePermTier = "当前 Tushare 积分不足以访问该接口"
)

// Report 一次分析的全部结果
type Report struct {
	ID           string                     `json:"id"`
	Code         string                     `json:"code"`
	Name         string                     `json:"name"`
	Market       model.Market               `json:"market"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Outcome      Outcome                    `json:"outcome"`
	Guidance     string                     `json:"guidance,omitempty"`
	Cause        string                     `json:"cause,omitempty"`
	Indicators   *model.IndicatorSnapshot   `json:"indicators,omitempty"`
	Fundamentals *model.FundamentalSnapshot `json:"fundamentals,omitempty"`
	Environment  *model.MarketEnvironment   `json:"environment,omitempty"`
}

func (r *Report) OK() bool { return r.Outcome == OutcomeOK }

// Err 非 ok 报告转为 error, 批量任务按 Outcome 计数
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ReportError{Code: r.Code, Result: r.Outcome, Guidance: r.Guidance}
}

// ReportError 行情部分失败的报告
type ReportError struct {
	Code     string
	Result   Outcome
	Guidance string
}

func (e *ReportError) Error() string { return e.Code + ": " + e.Guidance }

// Outcome 供 utils.Pipeline 归类
func (e *ReportError) Outcome() string { return string(e.Result) }

// setMarketError 区分无数据和调用失败
func (r *Report) setMarketError(code model.InstrumentCode, err error) {
	r.Cause = err.Error()

	var fe *model.FetchError
	switch {
	case errors.Is(err, model.ErrNoData):
		r.Outcome = OutcomeNoData
		r.Guidance = guidanceNoData
	case errors.As(err, &fe) && fe.Permission && code.IsHK():
		r.Outcome = OutcomeFetchFailed
		r.Guidance = guidanceHKTier
	case errors.As(err, &fe) && fe.Permission:
		r.Outcome = OutcomeFetchFailed
		r.Guidance = guidancePermTier
	default:
		r.Outcome = OutcomeFetchFailed
		r.Guidance = guidanceFailed
	}
}

// Record 持久化用的扁平快照
func (r *Report) Record() (model.SnapshotRecord, bool) {
	if r.Indicators == nil {
		return model.SnapshotRecord{}, false
	}
	ind := r.Indicators
	date, err := utils.ParseTradeDay(ind.TradeDate)
	if err != nil {
		return model.SnapshotRecord{}, false
	}

	rec := model.SnapshotRecord{
		Code:       r.Code,
		TradeDate:  date,
		Close:      ind.Close.String(),
		PctChg:     ind.PctChg.String(),
		MA5:        ind.MA5.String(),
		MA10:       ind.MA10.String(),
		MA20:       ind.MA20.String(),
		MACD:       ind.MACDHist.String(),
		RSI:        ind.RSI.String(),
		BollUpper:  ind.BollUpper.String(),
		BollLower:  ind.BollLower.String(),
		Volatility: ind.Volatility.String(),
		PETTM:      model.Insufficient,
		Sentiment:  model.Insufficient,
		CreatedAt:  r.GeneratedAt,
	}
	if r.Fundamentals != nil {
		rec.PETTM = r.Fundamentals.PETTM.String()
	}
	// 指数失败时的中性只是占位, 不落库
	if r.Environment != nil && r.Environment.Status == model.StatusOK {
		rec.Sentiment = string(r.Environment.Sentiment)
	}
	return rec, true
}
