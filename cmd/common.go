package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jing2uo/tsanalyst/analysis"
	"github.com/jing2uo/tsanalyst/cache"
	"github.com/jing2uo/tsanalyst/config"
	"github.com/jing2uo/tsanalyst/database"
	"github.com/jing2uo/tsanalyst/logger"
	"github.com/jing2uo/tsanalyst/market"
	"github.com/jing2uo/tsanalyst/source"
	"github.com/jing2uo/tsanalyst/tushare"
)

var ErrDBRequired = errors.New("--db or TSA_DB is required")

// Options 子命令共享的全局参数
type Options struct {
	EnvFile string
	DBPath  string
	NeedDB  bool
}

// Env 组装好的运行环境
type Env struct {
	Config  *config.Config
	Log     zerolog.Logger
	Cache   *cache.Cache
	Service *analysis.Service
	DB      database.DataRepository
}

func Setup(opts Options) (*Env, error) {
	var files []string
	if opts.EnvFile != "" {
		files = append(files, opts.EnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.NeedDB && cfg.DBPath == "" {
		return nil, ErrDBRequired
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	client := tushare.NewClient(cfg.Token,
		tushare.WithBaseURL(cfg.BaseURL),
		tushare.WithRateLimit(cfg.RateLimit),
		tushare.WithTimeout(cfg.CallTimeout),
		tushare.WithLogger(log),
	)
	router := source.NewRouter(client,
		source.WithHistoryDays(cfg.HistoryDays),
		source.WithLogger(log),
	)

	env := &Env{
		Config: cfg,
		Log:    log,
		Cache:  cache.New(cfg.CacheTTL, cache.WithLogger(log)),
	}

	svcOpts := []analysis.Option{analysis.WithLogger(log)}
	if cfg.DBPath != "" {
		db, err := OpenDB(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		env.DB = db
		svcOpts = append(svcOpts, analysis.WithStore(db))
	}

	env.Service = analysis.NewService(router, market.NewAggregator(router, log), env.Cache, svcOpts...)
	return env, nil
}

func (e *Env) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}

// OpenDB 连接并建表
func OpenDB(dbURI string) (database.DataRepository, error) {
	db, err := database.NewDB(dbURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}
