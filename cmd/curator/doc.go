// Package main hosts the Curator CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces on-demand organization, move history,
// duplicate listings, undo, and configuration scaffolding. Commands either
// open the ledger read-only for views or run the engine's synchronous
// operations in-process; the heavy lifting lives in the internal packages and
// this package stays declarative.
package main
