// Package cache provides a process-wide TTL cache with coarse invalidation by
// key prefix.
//
// Entries expire lazily: an entry older than its TTL is treated as absent the
// next time it is read. Prune, run periodically by the owner, removes
// expired entries that nobody reads and forgets idle prefix generations.
// InvalidatePrefix removes every entry under a prefix
// and advances that prefix's generation, so a value computed from data read
// before the invalidation (see Snapshot and PutStamped) is never served
// after it.
//
// Storage is delegated to a Backend. NewMemoryBackend keeps entries in a
// concurrent map; NewSturdycBackend keeps them in a sharded sturdyc client.
package cache
