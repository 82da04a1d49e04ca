// Package hashstore computes content hashes and tracks which on-disk paths
// share identical bytes.
//
// Hashing streams files in fixed-size chunks so memory stays bounded for
// arbitrarily large inputs. Duplicate checks consult the persistent ledger and
// count only surviving paths; stale entries are swept by the periodic Cleanup
// pass, which is idempotent and safe to interrupt.
package hashstore
