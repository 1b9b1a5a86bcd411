package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jing2uo/tsanalyst/scheduler"
	"github.com/jing2uo/tsanalyst/server"
)

const purgeSchedule = "@every 5m"

func Serve(ctx context.Context, env *Env, w io.Writer, addr string) error {
	if addr == "" {
		addr = env.Config.Addr
	}

	cfg := server.Config{
		Addr:     addr,
		Log:      env.Log,
		Analyzer: env.Service,
		Cache:    env.Cache,
	}
	if env.DB != nil {
		cfg.History = env.DB
	}
	srv := server.New(cfg)

	sched := scheduler.New(env.Log)
	err := sched.AddJob(purgeSchedule, scheduler.FuncJob{
		JobName: "cache_purge",
		Fn: func() error {
			env.Cache.Purge()
			return nil
		},
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(w, "🚀 HTTP 服务已启动: %s\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
