package kernel

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Strategy selects the scheduler's ordering policy
type Strategy string

const (
	// StrategyFIFO drains each task fully before servicing the next
	StrategyFIFO Strategy = "fifo"

	// StrategyRoundRobin time-slices one unit of work per task per pass
	StrategyRoundRobin Strategy = "round_robin"
)

// TaskStream produces an agent's units of work one call at a time.
// Advance returns ErrTaskDone when the stream is exhausted; any other error
// propagates out of Step undecorated, leaving retry or drop decisions to
// the driver.
type TaskStream interface {
	Advance(ctx context.Context) (interface{}, error)
}

// TaskFunc adapts a plain function to TaskStream
type TaskFunc func(ctx context.Context) (interface{}, error)

// Advance implements TaskStream
func (f TaskFunc) Advance(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// StreamOf returns a TaskStream yielding the given values in order
func StreamOf(values ...interface{}) TaskStream {
	i := 0
	return TaskFunc(func(ctx context.Context) (interface{}, error) {
		if i >= len(values) {
			return nil, ErrTaskDone
		}
		v := values[i]
		i++
		return v, nil
	})
}

// StepResult is the outcome of one scheduler step
type StepResult struct {
	AgentID string
	Value   interface{}
}

// queueEntry orders live tasks by (negated priority, registration sequence)
// so higher priority drains first and ties break by arrival order
type queueEntry struct {
	priority int
	seq      uint64
	agentID  string
}

type taskQueue []queueEntry

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x interface{}) { *q = append(*q, x.(queueEntry)) }

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	entry := old[n-1]
	*q = old[:n-1]
	return entry
}

// Scheduler cooperatively interleaves independently-driven agent task
// streams without preemption. Exactly one task's unit of work executes per
// step; the relative order of equal-priority tasks is deterministic.
// A drained scheduler is not restartable.
type Scheduler struct {
	strategy Strategy
	tasks    map[string]TaskStream
	queue    taskQueue
	counter  uint64
}

// NewScheduler creates a scheduler with the given ordering strategy
func NewScheduler(strategy Strategy) (*Scheduler, error) {
	switch strategy {
	case StrategyFIFO, StrategyRoundRobin:
	default:
		return nil, fmt.Errorf("strategy must be %q or %q, got %q", StrategyFIFO, StrategyRoundRobin, strategy)
	}
	return &Scheduler{
		strategy: strategy,
		tasks:    make(map[string]TaskStream),
	}, nil
}

// Strategy returns the ordering policy selected at construction
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// RegisterTask adds a task stream under agentID. The scheduler owns the
// stream from here on; duplicate identifiers fail with ErrConflict.
func (s *Scheduler) RegisterTask(agentID string, stream TaskStream, priority int) error {
	if agentID == "" {
		return fmt.Errorf("agent ID is required")
	}
	if stream == nil {
		return fmt.Errorf("task stream is required")
	}
	if _, exists := s.tasks[agentID]; exists {
		return fmt.Errorf("%w: task %s already registered", ErrConflict, agentID)
	}

	s.tasks[agentID] = stream
	heap.Push(&s.queue, queueEntry{priority: priority, seq: s.counter, agentID: agentID})
	s.counter++

	log.Debug().
		Str("agent", agentID).
		Int("priority", priority).
		Str("strategy", string(s.strategy)).
		Msg("Task registered")

	return nil
}

// HasTasks reports whether any queued tasks remain. In fifo mode an
// exhausted head lingers in the queue until it is next selected, so the
// queue length may briefly exceed the live-task count between steps.
func (s *Scheduler) HasTasks() bool {
	return s.queue.Len() > 0
}

// Step advances exactly one task by one unit of work and returns its yield,
// or nil when no tasks remain. Heads found already exhausted are retired
// internally and the next queued task is advanced instead, so end-of-stream
// is invisible to the driver loop. Errors other than ErrTaskDone propagate
// unwrapped: there is no Failed state, and the erroring task's bookkeeping
// is left as-is for the driver to decide.
func (s *Scheduler) Step(ctx context.Context) (*StepResult, error) {
	for s.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var entry queueEntry
		if s.strategy == StrategyFIFO {
			entry = s.queue[0]
		} else {
			entry = heap.Pop(&s.queue).(queueEntry)
		}

		stream := s.tasks[entry.agentID]
		value, err := stream.Advance(ctx)
		if errors.Is(err, ErrTaskDone) {
			if s.strategy == StrategyFIFO {
				heap.Pop(&s.queue)
			}
			delete(s.tasks, entry.agentID)
			log.Debug().Str("agent", entry.agentID).Msg("Task completed")
			continue
		}
		if err != nil {
			return nil, err
		}

		if s.strategy == StrategyRoundRobin {
			heap.Push(&s.queue, queueEntry{priority: entry.priority, seq: s.counter, agentID: entry.agentID})
			s.counter++
		}

		return &StepResult{AgentID: entry.agentID, Value: value}, nil
	}

	return nil, nil
}

// Run drives Step until the queue empties, invoking fn once per successful
// step. Work stays lazy: the next unit is not produced until fn returns.
// A non-nil error from fn or a stream aborts the run.
func (s *Scheduler) Run(ctx context.Context, fn func(StepResult) error) error {
	for {
		result, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		if err := fn(*result); err != nil {
			return err
		}
	}
}

// Drain runs the scheduler to exhaustion and collects every step result
func (s *Scheduler) Drain(ctx context.Context) ([]StepResult, error) {
	var results []StepResult
	err := s.Run(ctx, func(result StepResult) error {
		results = append(results, result)
		return nil
	})
	return results, err
}
