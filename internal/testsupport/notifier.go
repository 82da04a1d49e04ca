package testsupport

import (
	"context"
	"sync"
	"time"
)

// Notification is one recorded notifier call.
type Notification struct {
	Event   string
	Subject string
	Detail  []string
}

// RecordingNotifier captures notifications for assertions. It satisfies
// notifications.Service.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

// Events returns a copy of everything recorded so far.
func (r *RecordingNotifier) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.events))
	copy(out, r.events)
	return out
}

// ByEvent returns recorded notifications matching the event name.
func (r *RecordingNotifier) ByEvent(event string) []Notification {
	var out []Notification
	for _, n := range r.Events() {
		if n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

func (r *RecordingNotifier) record(event, subject string, detail ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Notification{Event: event, Subject: subject, Detail: detail})
}

func (r *RecordingNotifier) NotifyFileMoved(_ context.Context, filename, category, destination string) error {
	r.record("file_moved", filename, category, destination)
	return nil
}

func (r *RecordingNotifier) NotifyDuplicateDetected(_ context.Context, filename string, existingPaths []string) error {
	r.record("duplicate", filename, existingPaths...)
	return nil
}

func (r *RecordingNotifier) NotifyFolderDegraded(_ context.Context, folder string, reason error) error {
	r.record("folder_degraded", folder, reason.Error())
	return nil
}

func (r *RecordingNotifier) NotifyFolderRecovered(_ context.Context, folder string) error {
	r.record("folder_recovered", folder)
	return nil
}

func (r *RecordingNotifier) NotifyPermanentFailure(_ context.Context, path string, attempts int, lastErr error) error {
	r.record("permanent_failure", path, lastErr.Error())
	return nil
}

func (r *RecordingNotifier) NotifyBatchCompleted(_ context.Context, processed, errors int, _ time.Duration) error {
	r.record("batch_completed", "")
	return nil
}

func (r *RecordingNotifier) TestNotification(context.Context) error {
	r.record("test", "")
	return nil
}
