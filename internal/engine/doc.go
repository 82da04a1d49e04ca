// Package engine wires watchers, the mover, the retry queue, and periodic
// maintenance into one running organizer.
//
// Settled files flow from the per-folder watchers through a bounded worker
// pool into the mover. Retryable failures land on the retry queue; folders
// that become unreachable are resumed through the same queue. A cron schedule
// prunes stale hash ledger entries. The engine also hosts the synchronous
// operations the CLI drives directly: on-demand batch organization, undo, and
// configuration reload.
package engine
