package cmd

import (
	"fmt"
	"io"

	"github.com/jing2uo/tsanalyst/utils"
)

// Classify 不需要 token, 逐个输出规范代码
func Classify(w io.Writer, codes []string) error {
	var failed int
	for _, raw := range codes {
		code, err := utils.Classify(raw)
		if err != nil {
			fmt.Fprintf(w, "❌ %s\n", err)
			failed++
			continue
		}
		fmt.Fprintf(w, "✅ %s -> %s (%s)\n", raw, code, code.Market)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d codes could not be classified", failed, len(codes))
	}
	return nil
}
