package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/rss-sheet/app/feed"
)

// Runner performs one aggregation run.
type Runner interface {
	Run(ctx context.Context) (feed.Result, error)
}

var _ Runner = (*feed.Aggregator)(nil)

type AggregateTask struct {
	Task
	runner Runner
}

func NewAggregateTask(runner Runner) *AggregateTask {
	return &AggregateTask{
		Task:   NewTask(TaskTypeAggregate),
		runner: runner,
	}
}

func (t *AggregateTask) Execute(ctx context.Context) error {
	result, err := t.runner.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"duration", t.GetDuration(),
		"items", result.Items,
		"rows", result.RowsWritten,
		"failed_sources", result.FailedSources)

	return nil
}
