package cmd

import (
	"context"
	"fmt"
	"io"
)

func Search(ctx context.Context, env *Env, w io.Writer, keyword string) error {
	hits, err := env.Service.Search(ctx, keyword)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintf(w, "ℹ️ 未找到与 %q 匹配的股票\n", keyword)
		return nil
	}

	fmt.Fprintf(w, "🔍 找到 %d 条结果\n", len(hits))
	for _, h := range hits {
		if h.Industry != "" {
			fmt.Fprintf(w, "   %s  %s  [%s]\n", h.TSCode, h.Name, h.Industry)
		} else {
			fmt.Fprintf(w, "   %s  %s\n", h.TSCode, h.Name)
		}
	}
	return nil
}
