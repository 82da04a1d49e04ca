// Package routing classifies filenames into destination categories.
//
// A Table is built once from configuration and is immutable afterwards, so
// Classify is safe to call from any number of workers. Tag rules (filename
// substring matches) are evaluated first in configuration order, then the
// extension map, then the default category. Filenames are NFC-normalized
// before substring matching because SMB shares written from macOS hand back
// decomposed names.
package routing
