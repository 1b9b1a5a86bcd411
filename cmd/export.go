package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// Export 导出完整指标序列, 取数失败时不创建文件
func Export(ctx context.Context, env *Env, w io.Writer, code, format, output string) error {
	if format != FormatParquet && format != FormatCSV {
		return fmt.Errorf("unsupported format %q, use parquet or csv", format)
	}
	if output == "" {
		dir, err := utils.GetCacheDir()
		if err != nil {
			return fmt.Errorf("failed to resolve cache dir: %w", err)
		}
		output = filepath.Join(dir, strings.ReplaceAll(code, ".", "_")+"."+format)
	} else if err := utils.CheckOutputDir(filepath.Dir(output)); err != nil {
		return err
	}

	series, err := env.Service.Series(ctx, code)
	if err != nil {
		return err
	}

	writer, err := newRowWriter(format, output)
	if err != nil {
		return err
	}
	if err := writer.Write(series.Rows()); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	fmt.Fprintf(w, "✅ 已导出 %d 行到 %s\n", writer.Rows(), output)
	return nil
}

func newRowWriter(format, output string) (utils.RowWriter[model.IndicatorRow], error) {
	switch format {
	case FormatParquet:
		pw, err := utils.NewParquetWriter[model.IndicatorRow](output)
		if err != nil {
			return nil, err
		}
		return pw, nil
	case FormatCSV:
		cw, err := utils.NewCSVWriter[model.IndicatorRow](output)
		if err != nil {
			return nil, err
		}
		return cw, nil
	default:
		return nil, fmt.Errorf("unsupported format %q, use parquet or csv", format)
	}
}
