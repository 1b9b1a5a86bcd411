package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jing2uo/tsanalyst/analysis"
	"github.com/jing2uo/tsanalyst/model"
)

type analyzeOutput struct {
	Report  *analysis.Report           `json:"report"`
	Request *analysis.NarrativeRequest `json:"request,omitempty"`
}

func Analyze(ctx context.Context, env *Env, w io.Writer, code string, horizon model.Horizon, style string, asJSON bool) error {
	if !horizon.Valid() {
		return fmt.Errorf("%w: %q, 可选 next_day / week / month", analysis.ErrInvalidHorizon, horizon)
	}

	report, err := env.Service.Analyze(ctx, code)
	if err != nil {
		return err
	}

	out := analyzeOutput{Report: report}
	if report.OK() {
		req, err := analysis.NewRequest(report, horizon, style)
		if err != nil {
			return err
		}
		out.Request = req
	}

	if asJSON {
		if err := encodeJSON(w, out); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		PrintReport(w, report)
		if out.Request != nil {
			fmt.Fprintf(w, "📝 预测周期: %s, 风格: %s\n", out.Request.HorizonLabel, out.Request.Style)
		}
	}

	if !report.OK() {
		return fmt.Errorf("%s: %w", report.Code, analysis.ErrDataUnavailable)
	}
	return nil
}
