// Package retry defers failed operations for later re-execution with
// exponential backoff.
//
// Watchers and movers enqueue tasks concurrently; a single consumer drains
// them in earliest-due order, sleeping until the next task is due rather than
// polling. Each task carries its own backoff schedule with jitter. A task that
// keeps failing is dropped once it exhausts the attempt ceiling and reported
// as a permanent failure; the queue never retries forever.
package retry
