package cmd

import (
	"fmt"
	"io"

	"github.com/jing2uo/tsanalyst/analysis"
)

// PrintReport 终端输出
func PrintReport(w io.Writer, r *analysis.Report) {
	fmt.Fprintf(w, "📈 %s %s\n", r.Code, r.Name)

	if !r.OK() {
		fmt.Fprintf(w, "⚠️ %s\n", r.Guidance)
		if r.Cause != "" {
			fmt.Fprintf(w, "   原因: %s\n", r.Cause)
		}
	} else {
		fmt.Fprintf(w, "📊 技术指标 (%s)\n", r.Indicators.TradeDate)
		printFields(w, r.Indicators.Fields())
	}

	if f := r.Fundamentals; f != nil {
		fmt.Fprintln(w, "🏢 基本面")
		printFields(w, f.Fields())
	}

	if e := r.Environment; e != nil {
		fmt.Fprintf(w, "🌐 市场环境: %s\n", e.String())
	}
}

func printFields(w io.Writer, fields [][2]string) {
	for _, f := range fields {
		fmt.Fprintf(w, "   %s: %s\n", f[0], f[1])
	}
}
