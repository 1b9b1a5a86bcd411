package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jing2uo/tsanalyst/cache"
	"github.com/jing2uo/tsanalyst/calc"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/source"
	"github.com/jing2uo/tsanalyst/utils"
	"github.com/jing2uo/tsanalyst/workflow"
)

// DataSource source.Router 满足
type DataSource interface {
	Bars(ctx context.Context, code model.InstrumentCode) ([]model.DailyBar, error)
	Fundamentals(ctx context.Context, code model.InstrumentCode) *model.FundamentalSnapshot
	Universe(ctx context.Context) ([]model.BasicInfo, []model.BasicInfo, error)
}

// EnvironmentSource market.Aggregator 满足
type EnvironmentSource interface {
	Environment(ctx context.Context, code model.InstrumentCode) model.MarketEnvironment
}

// Store 可选的持久化
type Store interface {
	SaveBars(ctx context.Context, bars []model.DailyBar) error
	SaveSnapshot(ctx context.Context, rec model.SnapshotRecord) error
}

var errDegraded = errors.New("fundamentals degraded")

type Service struct {
	src   DataSource
	env   EnvironmentSource
	cache *cache.Cache
	store Store
	clock utils.Clock
	log   zerolog.Logger
	exec  *workflow.TaskExecutor[*run]
}

type Option func(*Service)

func WithStore(s Store) Option {
	return func(svc *Service) { svc.store = s }
}

func WithClock(c utils.Clock) Option {
	return func(svc *Service) { svc.clock = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(svc *Service) { svc.log = log.With().Str("component", "analysis").Logger() }
}

func NewService(src DataSource, env EnvironmentSource, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		src:   src,
		env:   env,
		cache: c,
		clock: utils.SystemClock{},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.exec = workflow.NewTaskExecutor(s.tasks()...)
	return s
}

func (s *Service) Cache() *cache.Cache { return s.cache }

// Analyze 分类失败或 ctx 取消时返回 error, 其余情况体现在 Report 中
func (s *Service) Analyze(ctx context.Context, raw string) (*Report, error) {
	code, err := utils.Classify(raw)
	if err != nil {
		return nil, err
	}

	r := &run{code: code}
	results, err := s.exec.Run(ctx, analyzeTasks, r)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", code, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		ID:           uuid.NewString(),
		Code:         code.String(),
		Name:         code.String(),
		Market:       code.Market,
		GeneratedAt:  s.clock.Now(),
		Outcome:      OutcomeOK,
		Fundamentals: r.fundamentals,
		Environment:  r.environment,
	}
	if r.fundamentals != nil && r.fundamentals.Name.Status == model.StatusOK {
		report.Name = r.fundamentals.Name.Value
	}

	if res := results[taskMarketData]; res != nil && res.Error != nil {
		report.setMarketError(code, res.Error)
	} else if r.series != nil {
		snap := r.series.Snapshot()
		report.Indicators = &snap
	}

	s.log.Info().
		Str("code", report.Code).
		Str("outcome", string(report.Outcome)).
		Str("report_id", report.ID).
		Msg("analysis finished")

	if report.OK() && s.store != nil {
		s.persist(ctx, r.series, report)
	}
	return report, nil
}

// Series 指标全序列, 走 market_data 缓存
func (s *Service) Series(ctx context.Context, raw string) (*calc.Series, error) {
	code, err := utils.Classify(raw)
	if err != nil {
		return nil, err
	}
	return s.marketData(ctx, code)
}

func (s *Service) marketData(ctx context.Context, code model.InstrumentCode) (*calc.Series, error) {
	key := cache.Key{Code: code.String(), Kind: cache.KindMarketData}
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*calc.Series, error) {
		bars, err := s.src.Bars(ctx, code)
		if err != nil {
			return nil, err
		}
		return calc.Compute(bars)
	})
}

func (s *Service) fundamentals(ctx context.Context, code model.InstrumentCode) *model.FundamentalSnapshot {
	key := cache.Key{Code: code.String(), Kind: cache.KindFundamentals}
	snap, _ := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*model.FundamentalSnapshot, error) {
		f := s.src.Fundamentals(ctx, code)
		if f.Degraded() {
			return f, errDegraded
		}
		return f, nil
	})
	return snap
}

func (s *Service) environment(ctx context.Context, code model.InstrumentCode) *model.MarketEnvironment {
	key := cache.Key{Code: code.String(), Kind: cache.KindMarketEnvironment}
	env, _ := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*model.MarketEnvironment, error) {
		e := s.env.Environment(ctx, code)
		if e.Status != model.StatusOK {
			return &e, errors.New(e.Cause)
		}
		return &e, nil
	})
	return env
}

type universe struct {
	domestic []model.BasicInfo
	hk       []model.BasicInfo
}

// Search 按名称或代码片段搜索, A 股与港股各 5 条
func (s *Service) Search(ctx context.Context, keyword string) ([]model.BasicInfo, error) {
	key := cache.Key{Code: "*", Kind: cache.KindStockList}
	u, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*universe, error) {
		domestic, hk, err := s.src.Universe(ctx)
		if err != nil {
			return nil, err
		}
		return &universe{domestic: domestic, hk: hk}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	return source.Search(u.domestic, u.hk, keyword), nil
}

func (s *Service) persist(ctx context.Context, series *calc.Series, report *Report) {
	if series != nil {
		if err := s.store.SaveBars(ctx, series.Bars); err != nil {
			s.log.Error().Err(err).Str("code", report.Code).Msg("failed to save bars")
		}
	}
	if rec, ok := report.Record(); ok {
		if err := s.store.SaveSnapshot(ctx, rec); err != nil {
			s.log.Error().Err(err).Str("code", report.Code).Msg("failed to save snapshot")
		}
	}
}
