// Package faults defines the engine error taxonomy and classification helpers.
//
// Every failure that crosses a component boundary is tagged with one of the
// exported sentinel errors via Wrap so callers can decide between retrying
// with backoff (Retryable) and dropping the operation. The markers mirror the
// failure modes of organizing files across local disks and network shares:
// locked files, vanished reads, unreachable mounts, permission and disk-space
// problems, and undo conflicts.
package faults
