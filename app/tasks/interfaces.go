package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(aggregator, interval, runTimeout, runOnStart)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewAggregateTask(aggregator))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
