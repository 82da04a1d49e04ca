// Package logging configures slog for the daemon and CLI.
//
// New builds a logger from explicit options; NewFromConfig derives those
// options from application config and tees output to stdout plus the log
// directory. Attribute helpers (String, Int64, Error, ...) keep call sites
// uniform, and NewComponentLogger stamps the standard component field so
// engine subsystems are distinguishable in shared output.
package logging
