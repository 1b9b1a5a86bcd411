package analysis

import (
	"context"

	"github.com/jing2uo/tsanalyst/calc"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/workflow"
)

const (
	taskMarketData   = "market_data"
	taskFundamentals = "fundamentals"
	taskEnvironment  = "market_environment"
)

var analyzeTasks = []string{taskMarketData, taskFundamentals, taskEnvironment}

// run 单次分析的共享状态, 每个任务只写自己的字段
type run struct {
	code         model.InstrumentCode
	series       *calc.Series
	fundamentals *model.FundamentalSnapshot
	environment  *model.MarketEnvironment
}

func (s *Service) tasks() []*workflow.Task[*run] {
	return []*workflow.Task[*run]{
		{
			Name:    taskMarketData,
			OnError: workflow.ErrorModeSkip,
			Executor: func(ctx context.Context, r *run) (*workflow.TaskResult, error) {
				series, err := s.marketData(ctx, r.code)
				if err != nil {
					return nil, err
				}
				r.series = series
				return &workflow.TaskResult{State: workflow.StateCompleted}, nil
			},
		},
		{
			Name:    taskFundamentals,
			OnError: workflow.ErrorModeSkip,
			Executor: func(ctx context.Context, r *run) (*workflow.TaskResult, error) {
				r.fundamentals = s.fundamentals(ctx, r.code)
				return nil, nil
			},
		},
		{
			Name:    taskEnvironment,
			OnError: workflow.ErrorModeSkip,
			Executor: func(ctx context.Context, r *run) (*workflow.TaskResult, error) {
				r.environment = s.environment(ctx, r.code)
				return nil, nil
			},
		},
	}
}
