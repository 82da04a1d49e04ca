package retry

import (
	"container/heap"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// Kind identifies the deferred operation a task re-attempts.
type Kind string

const (
	// KindFileMove re-attempts moving a single file.
	KindFileMove Kind = "file_move"
	// KindFolderReconnect re-probes an unreachable watched folder.
	KindFolderReconnect Kind = "folder_reconnect"
)

// Task is one deferred operation. Payload is the file path for KindFileMove
// and the folder path for KindFolderReconnect.
type Task struct {
	ID            string
	Kind          Kind
	Payload       string
	Attempt       int
	NextAttemptAt time.Time
	LastError     error

	schedule *backoff.ExponentialBackOff
	index    int
}

func newTask(kind Kind, payload string, lastErr error, schedule *backoff.ExponentialBackOff) *Task {
	task := &Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		LastError: lastErr,
		schedule:  schedule,
	}
	task.NextAttemptAt = time.Now().Add(schedule.NextBackOff())
	return task
}

func (t *Task) reschedule(err error) {
	t.Attempt++
	t.LastError = err
	t.NextAttemptAt = time.Now().Add(t.schedule.NextBackOff())
}

// taskHeap orders tasks by due time; ordering among equal due times is not
// guaranteed and not required.
type taskHeap []*Task

var _ heap.Interface = (*taskHeap)(nil)

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool { return h[i].NextAttemptAt.Before(h[j].NextAttemptAt) }

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*Task)
	task.index = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}
