package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-sheet/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs queued tasks one at a time on a single worker. Failed
// runs are logged and not retried.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
	runOnStart bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	taskQueue  chan TaskInterface
}

// NewScheduler returns a scheduler that enqueues an aggregation every
// interval. A zero interval disables periodic runs.
func NewScheduler(runner Runner, interval, runTimeout time.Duration, runOnStart bool) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		runOnStart: runOnStart,
		ctx:        ctx,
		cancel:     cancel,
		taskQueue:  make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	if s.runOnStart {
		s.enqueueAggregate()
	}

	if s.interval <= 0 {
		slog.Debug("Periodic aggregation disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueAggregate()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueAggregate() {
	if err := s.EnqueueTask(NewAggregateTask(s.runner)); err != nil {
		slog.Warn("Failed to enqueue AggregateTask", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx := s.ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(s.ctx, s.runTimeout)
		defer cancel()
	}

	err := task.Execute(taskCtx)
	if errors.Is(err, feed.ErrRunInProgress) {
		slog.Warn("Skipping task, a run is already in progress", "type", string(task.GetType()), "id", task.GetID())
		return
	}
	if err != nil {
		slog.Error("Worker task execution failed", "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
	}
}
