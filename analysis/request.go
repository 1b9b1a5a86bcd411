package analysis

import (
	"errors"
	"fmt"

	"github.com/jing2uo/tsanalyst/model"
)

var (
	ErrDataUnavailable = errors.New("market data unavailable")
	ErrInvalidHorizon  = errors.New("invalid forecast horizon")
)

const DefaultStyle = "balanced"

// NarrativeRequest 交给下游文字生成层的输入
type NarrativeRequest struct {
	Code         string                    `json:"code"`
	Name         string                    `json:"name"`
	Horizon      model.Horizon             `json:"horizon"`
	HorizonLabel string                    `json:"horizon_label"`
	Style        string                    `json:"style"`
	Indicators   model.IndicatorSnapshot   `json:"indicators"`
	Fundamentals model.FundamentalSnapshot `json:"fundamentals"`
	Environment  model.MarketEnvironment   `json:"environment"`
}

// NewRequest 没有指标快照时返回 ErrDataUnavailable
func NewRequest(r *Report, horizon model.Horizon, style string) (*NarrativeRequest, error) {
	if !horizon.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHorizon, horizon)
	}
	if r == nil || r.Indicators == nil {
		return nil, ErrDataUnavailable
	}
	if style == "" {
		style = DefaultStyle
	}

	req := &NarrativeRequest{
		Code:         r.Code,
		Name:         r.Name,
		Horizon:      horizon,
		HorizonLabel: horizon.Label(),
		Style:        style,
		Indicators:   *r.Indicators,
	}
	if r.Fundamentals != nil {
		req.Fundamentals = *r.Fundamentals
	}
	if r.Environment != nil {
		req.Environment = *r.Environment
	}
	return req, nil
}
