package watcher

import (
	"os"
	"sync"
	"time"
)

// settler coalesces rapid events per path and releases a path only after its
// size is stable across consecutive checks.
type settler struct {
	debounce time.Duration
	interval time.Duration
	checks   int
	emit     func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

func newSettler(debounce time.Duration, checks int, emit func(path string)) *settler {
	interval := debounce / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	if checks < 1 {
		checks = 1
	}
	return &settler{
		debounce: debounce,
		interval: interval,
		checks:   checks,
		emit:     emit,
		pending:  make(map[string]*time.Timer),
	}
}

// touch arms or resets the debounce timer for path.
func (s *settler) touch(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if timer, ok := s.pending[path]; ok {
		timer.Stop()
	}
	s.pending[path] = time.AfterFunc(s.debounce, func() {
		s.fire(path)
	})
}

// fire runs after the debounce window with no further events. The path is
// released only when its size holds steady; otherwise the timer re-arms.
func (s *settler) fire(path string) {
	s.mu.Lock()
	delete(s.pending, path)
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Gone or unreadable; a future event re-arms the timer.
		return
	}
	if info.IsDir() {
		return
	}

	size := info.Size()
	for i := 1; i < s.checks; i++ {
		time.Sleep(s.interval)
		info, err = os.Stat(path)
		if err != nil {
			return
		}
		if info.Size() != size {
			// Still growing; wait for the next quiet window.
			s.touch(path)
			return
		}
		size = info.Size()
	}

	s.emit(path)
}

// pendingCount reports paths currently awaiting settlement.
func (s *settler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// close cancels all pending timers; no emissions happen afterwards.
func (s *settler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for path, timer := range s.pending {
		timer.Stop()
		delete(s.pending, path)
	}
}
