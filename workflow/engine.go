package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TaskState represents the state of a task execution
type TaskState string

const (
	StatePending   TaskState = "pending"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateSkipped   TaskState = "skipped"
	StateFailed    TaskState = "failed"
)

// TaskResult holds the execution result of a task
type TaskResult struct {
	State    TaskState
	Message  string
	Error    error
	Duration time.Duration
}

type ErrorMode int

const (
	ErrorModeStop ErrorMode = iota
	ErrorModeSkip
)

// TaskFunc is the function that executes a task
type TaskFunc[A any] func(ctx context.Context, args A) (*TaskResult, error)

// SkipCondition determines if a task should be skipped
type SkipCondition[A any] func(ctx context.Context, args A) bool

// Task represents a unit of work with dependencies
type Task[A any] struct {
	Name      string
	DependsOn []string
	Executor  TaskFunc[A]
	SkipIf    SkipCondition[A]
	OnError   ErrorMode
}

// TaskExecutor manages and executes tasks with dependency resolution.
// Tasks whose dependencies are done run in parallel.
type TaskExecutor[A any] struct {
	tasks map[string]*Task[A]
}

// NewTaskExecutor creates a new task executor
func NewTaskExecutor[A any](tasks ...*Task[A]) *TaskExecutor[A] {
	m := make(map[string]*Task[A], len(tasks))
	for _, t := range tasks {
		m[t.Name] = t
	}
	return &TaskExecutor[A]{tasks: m}
}

// Run executes the named tasks and returns every task's result.
// It stops at the first failing task whose OnError is ErrorModeStop.
func (te *TaskExecutor[A]) Run(ctx context.Context, taskNames []string, args A) (map[string]*TaskResult, error) {
	results := make(map[string]*TaskResult)
	if len(taskNames) == 0 {
		return results, nil
	}

	order, err := te.topologicalSort(taskNames)
	if err != nil {
		return results, fmt.Errorf("failed to resolve task dependencies: %w", err)
	}

	requested := make(map[string]bool)
	pending := make(map[string]bool)
	for _, name := range order {
		requested[name] = true
		pending[name] = true
	}

	var mu sync.Mutex
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		ready := te.findReadyTasks(pending, requested, results)
		if len(ready) == 0 {
			// 依赖失败且为 Skip 模式的任务无法继续
			for name := range pending {
				results[name] = &TaskResult{State: StateSkipped, Message: "dependency not completed"}
			}
			return results, nil
		}

		var wg sync.WaitGroup
		for _, name := range ready {
			task := te.tasks[name]

			if task.SkipIf != nil && task.SkipIf(ctx, args) {
				mu.Lock()
				results[name] = &TaskResult{State: StateSkipped, Message: "skipped by condition"}
				mu.Unlock()
				continue
			}

			wg.Add(1)
			go func(n string, t *Task[A]) {
				defer wg.Done()
				r := te.executeTask(ctx, t, args)
				mu.Lock()
				results[n] = r
				mu.Unlock()
			}(name, task)
		}

		wg.Wait()

		for _, name := range ready {
			result := results[name]
			delete(pending, name)
			if result.Error != nil && te.tasks[name].OnError == ErrorModeStop {
				return results, fmt.Errorf("task %s failed: %w", name, result.Error)
			}
		}
	}

	return results, nil
}

func (te *TaskExecutor[A]) executeTask(ctx context.Context, task *Task[A], args A) (result *TaskResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = &TaskResult{State: StateFailed, Error: fmt.Errorf("panic in task %s: %v", task.Name, r)}
		}
		result.Duration = time.Since(start)
	}()

	res, err := task.Executor(ctx, args)
	if err != nil {
		return &TaskResult{State: StateFailed, Error: err}
	}
	if res == nil {
		res = &TaskResult{}
	}
	if res.State == "" {
		res.State = StateCompleted
	}
	return res
}

func (te *TaskExecutor[A]) topologicalSort(taskNames []string) ([]string, error) {
	inDegree := make(map[string]int)
	adj := make(map[string][]string)
	taskSet := make(map[string]bool)

	for _, name := range taskNames {
		if _, exists := te.tasks[name]; !exists {
			return nil, fmt.Errorf("task %s not found", name)
		}
		taskSet[name] = true
		inDegree[name] = 0
	}

	for _, name := range taskNames {
		task := te.tasks[name]
		for _, dep := range task.DependsOn {
			if !taskSet[dep] {
				continue
			}
			adj[dep] = append(adj[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, neighbor := range adj[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(order) != len(taskNames) {
		return nil, fmt.Errorf("circular dependency detected")
	}

	return order, nil
}

// findReadyTasks 未被请求的依赖视为已满足
func (te *TaskExecutor[A]) findReadyTasks(pending, requested map[string]bool, results map[string]*TaskResult) []string {
	var ready []string

	for name := range pending {
		task := te.tasks[name]

		allDepsDone := true
		for _, dep := range task.DependsOn {
			if !requested[dep] {
				continue
			}
			result, exists := results[dep]
			if !exists || (result.State != StateCompleted && result.State != StateSkipped) {
				allDepsDone = false
				break
			}
		}

		if allDepsDone {
			ready = append(ready, name)
		}
	}

	sort.Strings(ready)
	return ready
}

func (te *TaskExecutor[A]) GetTaskNames() []string {
	names := make([]string, 0, len(te.tasks))
	for name := range te.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
