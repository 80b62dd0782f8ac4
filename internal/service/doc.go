// Package service contains the task use cases. TaskService coordinates
// filter validation, the per-user task-list cache and the task store, and
// announces every mutation through an events.EventEmitter so the cache can
// drop that user's stale pages before the call returns.
//
// The service depends on store interfaces only, never on a concrete
// database.
package service
