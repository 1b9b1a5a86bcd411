package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jing2uo/tsanalyst/analysis"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

// Batch 并发分析多个代码, 汇总写入 CSV
func Batch(ctx context.Context, env *Env, w io.Writer, codes []string, output string, concurrency int) error {
	if len(codes) == 0 {
		return fmt.Errorf("no codes given")
	}

	if err := utils.CheckOutputDir(filepath.Dir(output)); err != nil {
		return err
	}
	writer, err := utils.NewCSVWriter[model.SnapshotRecord](output)
	if err != nil {
		return fmt.Errorf("failed to create csv writer: %w", err)
	}

	fmt.Fprintf(w, "🛠️  开始分析 %d 个代码\n", len(codes))
	p := utils.NewPipeline[string, model.SnapshotRecord](utils.WithConcurrency(concurrency))
	result, err := p.RunWithWriter(ctx, codes, func(ctx context.Context, code string) ([]model.SnapshotRecord, error) {
		return analyzeRecord(ctx, env.Service, code)
	}, writer)
	if cerr := writer.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		fmt.Fprintf(w, "⚠️ [%s] %s: %v\n", f.Outcome, f.Input, f.Err)
	}
	fmt.Fprintf(w, "✅ 完成 %d/%d, 写入 %d 行到 %s, 耗时 %s\n",
		result.Succeeded, result.Total, writer.Rows(), output, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "📊 %s\n", result.Summary())

	if result.Succeeded == 0 {
		return fmt.Errorf("all codes failed: %s", result.ErrorSummary())
	}
	return nil
}

func analyzeRecord(ctx context.Context, svc *analysis.Service, code string) ([]model.SnapshotRecord, error) {
	report, err := svc.Analyze(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	rec, ok := report.Record()
	if !ok {
		return nil, fmt.Errorf("%s: %w", report.Code, analysis.ErrDataUnavailable)
	}
	return []model.SnapshotRecord{rec}, nil
}
