package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jing2uo/tsanalyst/cmd"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

const dbPathInfo = "DuckDB 文件路径, 默认读取 TSA_DB"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts cmd.Options

	var rootCmd = &cobra.Command{
		Use:           "tsanalyst",
		Short:         "Tushare based A-share / HK stock analysis",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env", "", ".env 文件路径, 默认当前目录 .env")
	rootCmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", dbPathInfo)

	setup := func(needDB bool) (*cmd.Env, error) {
		o := opts
		o.NeedDB = needDB
		return cmd.Setup(o)
	}

	var classifyCmd = &cobra.Command{
		Use:   "classify <code>...",
		Short: "Normalize codes to exchange-qualified form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Classify(os.Stdout, args)
		},
	}

	var horizon, style string
	var asJSON bool

	var analyzeCmd = &cobra.Command{
		Use:   "analyze <code>",
		Short: "Indicators, fundamentals and market environment for one code",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			env, err := setup(false)
			if err != nil {
				return err
			}
			defer env.Close()
			return cmd.Analyze(ctx, env, os.Stdout, args[0], model.Horizon(horizon), style, asJSON)
		},
	}
	analyzeCmd.Flags().StringVar(&horizon, "horizon", string(model.HorizonNextDay), "预测周期: next_day, week, month")
	analyzeCmd.Flags().StringVar(&style, "style", "", "分析风格, 透传给下游")
	analyzeCmd.Flags().BoolVar(&asJSON, "json", false, "输出 JSON")

	var searchCmd = &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search stocks by name or code fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			env, err := setup(false)
			if err != nil {
				return err
			}
			defer env.Close()
			return cmd.Search(ctx, env, os.Stdout, args[0])
		},
	}

	var codeFile, batchOutput, exportOutput string
	var concurrency int

	loadCodes := func(args []string) ([]string, error) {
		codes := args
		if codeFile != "" {
			more, err := utils.ReadCodeList(codeFile)
			if err != nil {
				return nil, err
			}
			codes = append(codes, more...)
		}
		return codes, nil
	}

	var batchCmd = &cobra.Command{
		Use:   "batch [code]...",
		Short: "Analyze many codes and write a CSV summary",
		RunE: func(c *cobra.Command, args []string) error {
			codes, err := loadCodes(args)
			if err != nil {
				return err
			}
			env, err := setup(false)
			if err != nil {
				return err
			}
			defer env.Close()
			return cmd.Batch(ctx, env, os.Stdout, codes, batchOutput, concurrency)
		},
	}
	batchCmd.Flags().StringVar(&codeFile, "file", "", "代码清单文件, 每行一个")
	batchCmd.Flags().StringVar(&batchOutput, "output", "analysis.csv", "CSV 输出路径")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "并发数")

	var format string

	var exportCmd = &cobra.Command{
		Use:   "export <code>",
		Short: "Export the full indicator series",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			env, err := setup(false)
			if err != nil {
				return err
			}
			defer env.Close()
			return cmd.Export(ctx, env, os.Stdout, args[0], format, exportOutput)
		},
	}
	exportCmd.Flags().StringVar(&format, "format", cmd.FormatParquet, "输出格式: parquet, csv")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "输出文件路径, 默认写入缓存目录")

	var limit int
	var showBars bool

	var historyCmd = &cobra.Command{
		Use:   "history <code>",
		Short: "Show persisted snapshots from DuckDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dbPath := opts.DBPath
			if dbPath == "" {
				dbPath = os.Getenv("TSA_DB")
			}
			if dbPath == "" {
				return cmd.ErrDBRequired
			}
			db, err := cmd.OpenDB(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return cmd.History(ctx, db, os.Stdout, args[0], limit, showBars, asJSON)
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 30, "最多返回条数")
	historyCmd.Flags().BoolVar(&showBars, "bars", false, "显示已保存的日线而不是分析快照")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "输出 JSON")

	var schedule string
	var runNow bool

	var watchCmd = &cobra.Command{
		Use:   "watch [code]...",
		Short: "Re-analyze a watchlist on a cron schedule, defaults to stored symbols",
		RunE: func(c *cobra.Command, args []string) error {
			codes, err := loadCodes(args)
			if err != nil {
				return err
			}
			env, err := setup(true)
			if err != nil {
				return err
			}
			defer env.Close()
			return cmd.Watch(ctx, env, os.Stdout, codes, schedule, runNow)
		},
	}
	watchCmd.Flags().StringVar(&codeFile, "file", "", "代码清单文件, 每行一个")
	watchCmd.Flags().StringVar(&schedule, "cron", "", "cron 表达式, 默认读取 TSA_WATCH_CRON")
	watchCmd.Flags().BoolVar(&runNow, "now", true, "启动时先执行一次")

	var addr string

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(c *cobra.Command, args []string) error {
			env, err := setup(false)
			if err != nil {
				return err
			}
			defer env.Close()
			return cmd.Serve(ctx, env, os.Stdout, addr)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "监听地址, 默认读取 TSA_ADDR")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "🛑 错误: %v\n", err)
		os.Exit(1)
	}
}
