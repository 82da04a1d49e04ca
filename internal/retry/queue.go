package retry

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"curator/internal/config"
	"curator/internal/logging"
)

// Handler re-attempts one kind of deferred operation. Returning nil completes
// the task; returning an error reschedules it with backoff.
type Handler func(ctx context.Context, task *Task) error

// PermanentFailureFunc is invoked when a task exhausts its attempt ceiling.
type PermanentFailureFunc func(task *Task)

// Queue holds deferred operations and drains them in earliest-due order.
// Enqueue may be called from any goroutine; Run is the single consumer.
type Queue struct {
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	mu       sync.Mutex
	tasks    taskHeap
	handlers map[Kind]Handler
	onDrop   PermanentFailureFunc

	wake chan struct{}
}

// NewQueue constructs a retry queue with backoff tuning from config.
func NewQueue(cfg *config.Config, logger *slog.Logger) *Queue {
	return &Queue{
		logger:      logging.NewComponentLogger(logger, "retry"),
		maxAttempts: cfg.Retry.MaxAttempts,
		baseDelay:   time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		maxDelay:    time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
		handlers:    make(map[Kind]Handler),
		wake:        make(chan struct{}, 1),
	}
}

// RegisterHandler installs the re-attempt handler for a task kind. Handlers
// must be registered before Run starts.
func (q *Queue) RegisterHandler(kind Kind, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// OnPermanentFailure installs the callback invoked when a task is dropped
// after exhausting its attempts.
func (q *Queue) OnPermanentFailure(fn PermanentFailureFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onDrop = fn
}

// Enqueue schedules a new deferred operation. The first attempt is delayed by
// the initial backoff interval.
func (q *Queue) Enqueue(kind Kind, payload string, cause error) *Task {
	task := newTask(kind, payload, cause, q.newSchedule())

	q.mu.Lock()
	heap.Push(&q.tasks, task)
	q.mu.Unlock()

	q.logger.Warn("operation deferred for retry",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String("kind", string(kind)),
		logging.String("payload", payload),
		logging.Error(cause),
	)
	q.signal()
	return task
}

// Pending returns the number of tasks currently queued.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}

// Run drains the queue until ctx is cancelled. It sleeps until the earliest
// task is due; it never busy-spins.
func (q *Queue) Run(ctx context.Context) {
	for {
		task, wait := q.nextDue()
		if task == nil {
			if !q.sleep(ctx, wait) {
				return
			}
			continue
		}
		q.attempt(ctx, task)
		if ctx.Err() != nil {
			return
		}
	}
}

// nextDue pops the earliest task if it is due. When nothing is due it returns
// nil and the duration to sleep (zero means wait for a signal).
func (q *Queue) nextDue() (*Task, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tasks.Len() == 0 {
		return nil, 0
	}
	earliest := q.tasks[0]
	now := time.Now()
	if earliest.NextAttemptAt.After(now) {
		return nil, earliest.NextAttemptAt.Sub(now)
	}
	return heap.Pop(&q.tasks).(*Task), 0
}

// sleep waits for the given duration, an enqueue signal, or cancellation.
// It returns false when ctx is done.
func (q *Queue) sleep(ctx context.Context, wait time.Duration) bool {
	if wait <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-q.wake:
			return true
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-q.wake:
		return true
	case <-timer.C:
		return true
	}
}

func (q *Queue) attempt(ctx context.Context, task *Task) {
	q.mu.Lock()
	handler := q.handlers[task.Kind]
	q.mu.Unlock()

	if handler == nil {
		q.logger.Error("no handler registered for task kind",
			logging.String("kind", string(task.Kind)),
			logging.String(logging.FieldTaskID, task.ID),
		)
		return
	}

	err := handler(ctx, task)
	if err == nil {
		q.logger.Info("deferred operation succeeded",
			logging.String(logging.FieldTaskID, task.ID),
			logging.String("kind", string(task.Kind)),
			logging.String("payload", task.Payload),
			logging.Int("attempts", task.Attempt+1),
		)
		return
	}
	if ctx.Err() != nil {
		return
	}

	task.reschedule(err)
	if task.Attempt >= q.maxAttempts {
		q.drop(task)
		return
	}

	q.mu.Lock()
	heap.Push(&q.tasks, task)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) drop(task *Task) {
	q.logger.Error("deferred operation permanently failed, dropping",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String("kind", string(task.Kind)),
		logging.String("payload", task.Payload),
		logging.Int("attempts", task.Attempt),
		logging.Error(task.LastError),
	)
	q.mu.Lock()
	onDrop := q.onDrop
	q.mu.Unlock()
	if onDrop != nil {
		onDrop(task)
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) newSchedule() *backoff.ExponentialBackOff {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = q.baseDelay
	schedule.MaxInterval = q.maxDelay
	schedule.Multiplier = 2
	return schedule
}
