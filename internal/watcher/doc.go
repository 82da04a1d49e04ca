// Package watcher monitors watched folders and emits files only once they
// have settled.
//
// Each folder runs its own fsnotify listener. Create and write events arm a
// per-path debounce timer that resets on every subsequent event; when the
// timer fires the file's size must hold steady across consecutive checks
// before the path is handed downstream, so partially written downloads are
// never processed. Network (UNC) folders get a periodic reachability probe
// because change notifications are unreliable over shares; an unreachable
// folder suspends emission and is resumed through the retry queue.
package watcher
