// Package creds resolves authentication secrets for UNC watched folders.
//
// The file-backed store reads a TOML document of named credential entries.
// A missing reference or unreadable file degrades the folder that needs it
// rather than failing engine startup; the watcher keeps probing and the
// engine retries the mount through the retry queue.
package creds
