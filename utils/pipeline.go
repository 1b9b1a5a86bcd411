package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// 批量结果分类, 业务错误通过 Outcome() 自带分类
const (
	OutcomeOK        = "ok"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Outcomer 能自报分类的错误, 例如 analysis.ReportError
type Outcomer interface {
	Outcome() string
}

// OutcomeOf nil 为 ok, ctx 取消为 cancelled, 其余看 Outcomer
func OutcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCancelled
	}
	var o Outcomer
	if errors.As(err, &o) {
		return o.Outcome()
	}
	return OutcomeError
}

// Failure 单个输入的失败
type Failure struct {
	Input   string
	Outcome string
	Err     error

	index int
}

// PipelineResult 按分类汇总, Failures 保持输入顺序
type PipelineResult struct {
	Total     int
	Succeeded int
	Rows      int64
	Outcomes  map[string]int
	Failures  []Failure
	Duration  time.Duration
}

func (r *PipelineResult) HasErrors() bool { return len(r.Failures) > 0 }

// Count 某个分类的数量
func (r *PipelineResult) Count(outcome string) int { return r.Outcomes[outcome] }

// Summary 形如 "ok=3 fetch_failed=1 no_data=2", ok 在前其余按字母序
func (r *PipelineResult) Summary() string {
	keys := make([]string, 0, len(r.Outcomes))
	for k := range r.Outcomes {
		if k != OutcomeOK {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := r.Outcomes[OutcomeOK]; ok {
		keys = append([]string{OutcomeOK}, keys...)
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, r.Outcomes[k])
	}
	return strings.Join(parts, " ")
}

func (r *PipelineResult) ErrorSummary() string {
	if len(r.Failures) == 0 {
		return ""
	}
	first := r.Failures[0]
	return fmt.Sprintf("%d/%d failed (%s), first %s: %v", len(r.Failures), r.Total, r.Summary(), first.Input, first.Err)
}

// Pipeline 固定数量 worker 处理输入, 结果在调用方 goroutine 串行写出
type Pipeline[I, O any] struct {
	concurrency int
}

type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	concurrency int
}

func WithConcurrency(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func NewPipeline[I, O any](opts ...PipelineOption) *Pipeline[I, O] {
	cfg := &pipelineConfig{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Pipeline[I, O]{concurrency: cfg.concurrency}
}

type itemResult[O any] struct {
	index int
	rows  []O
	err   error
}

// Run 每个输入调用一次 process, 成功的行交给 consume。
// consume 失败记在对应输入上, 不中断其余输入。
func (p *Pipeline[I, O]) Run(
	ctx context.Context,
	inputs []I,
	process func(ctx context.Context, input I) ([]O, error),
	consume func(rows []O) error,
) (*PipelineResult, error) {
	start := time.Now()
	res := &PipelineResult{Total: len(inputs), Outcomes: make(map[string]int)}
	if len(inputs) == 0 {
		res.Duration = time.Since(start)
		return res, nil
	}

	jobs := make(chan int)
	results := make(chan itemResult[O], p.concurrency)

	var wg sync.WaitGroup
	for w := 0; w < min(p.concurrency, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rows, err := processOne(ctx, inputs[idx], process)
				results <- itemResult[O]{index: idx, rows: rows, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range inputs {
			jobs <- i
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		err := r.err
		if err == nil && len(r.rows) > 0 {
			if cerr := consume(r.rows); cerr != nil {
				err = fmt.Errorf("write rows: %w", cerr)
			} else {
				res.Rows += int64(len(r.rows))
			}
		}

		outcome := OutcomeOf(err)
		res.Outcomes[outcome]++
		if err == nil {
			res.Succeeded++
			continue
		}
		res.Failures = append(res.Failures, Failure{
			Input:   fmt.Sprint(inputs[r.index]),
			Outcome: outcome,
			Err:     err,
			index:   r.index,
		})
	}

	sort.Slice(res.Failures, func(i, j int) bool {
		return res.Failures[i].index < res.Failures[j].index
	})
	res.Duration = time.Since(start)
	return res, nil
}

func processOne[I, O any](ctx context.Context, input I, process func(context.Context, I) ([]O, error)) (rows []O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return process(ctx, input)
}

// RowWriter CSVWriter 和 ParquetWriter 都满足
type RowWriter[T any] interface {
	Write(rows []T) error
	Rows() int64
	Close() error
}

func (p *Pipeline[I, O]) RunWithWriter(
	ctx context.Context,
	inputs []I,
	process func(ctx context.Context, input I) ([]O, error),
	writer RowWriter[O],
) (*PipelineResult, error) {
	return p.Run(ctx, inputs, process, writer.Write)
}
