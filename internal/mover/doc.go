// Package mover orchestrates the hash, classify, and relocate sequence for a
// single settled file.
//
// Duplicate detection informs the caller via notification but never blocks
// the move; collision-safe naming guarantees no file is silently overwritten;
// same-volume moves use one atomic rename while cross-volume moves copy with
// size and hash verification before the source is deleted. Failures are
// tagged with the fault taxonomy so the engine can route them to the retry
// queue or drop them as permanent.
package mover
