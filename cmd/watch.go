package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/scheduler"
	"github.com/jing2uo/tsanalyst/utils"
)

// Watch 按 cron 定时分析自选股, 快照写入数据库
func Watch(ctx context.Context, env *Env, w io.Writer, codes []string, schedule string, runNow bool) error {
	if env.DB == nil {
		return ErrDBRequired
	}
	if len(codes) == 0 {
		stored, err := env.DB.GetAllSymbols(ctx)
		if err != nil {
			return err
		}
		codes = stored
	}
	if len(codes) == 0 {
		return fmt.Errorf("watchlist is empty and no symbols are stored yet")
	}
	if schedule == "" {
		schedule = env.Config.WatchCron
	}
	if err := scheduler.Validate(schedule); err != nil {
		return err
	}

	job := watchJob(ctx, env, w, codes)
	sched := scheduler.New(env.Log)
	if err := sched.AddJob(schedule, job); err != nil {
		return err
	}

	if runNow {
		if err := sched.RunNow(job); err != nil {
			env.Log.Warn().Err(err).Msg("initial run had failures")
		}
	}

	sched.Start()
	fmt.Fprintf(w, "⏰ 已启动定时分析 (%s), %d 个代码, Ctrl+C 退出\n", schedule, len(codes))
	<-ctx.Done()
	sched.Stop()
	return nil
}

func watchJob(ctx context.Context, env *Env, w io.Writer, codes []string) scheduler.Job {
	return scheduler.FuncJob{
		JobName: "watch",
		Fn: func() error {
			if n := env.Cache.Purge(); n > 0 {
				env.Log.Debug().Int("evicted", n).Msg("cache purged")
			}

			p := utils.NewPipeline[string, model.SnapshotRecord](utils.WithConcurrency(2))
			result, err := p.Run(ctx, codes, func(ctx context.Context, code string) ([]model.SnapshotRecord, error) {
				return analyzeRecord(ctx, env.Service, code)
			}, func(rows []model.SnapshotRecord) error {
				for _, r := range rows {
					fmt.Fprintf(w, "📈 %s %s 收盘 %s 涨跌 %s%% %s\n",
						r.TradeDate.Format("2006-01-02"), r.Code, r.Close, r.PctChg, r.Sentiment)
				}
				return nil
			})
			if err != nil {
				return err
			}
			env.Log.Info().Str("outcomes", result.Summary()).Dur("took", result.Duration).Msg("watch run finished")
			if result.HasErrors() {
				return fmt.Errorf("watch run: %s", result.ErrorSummary())
			}
			return nil
		},
	}
}
