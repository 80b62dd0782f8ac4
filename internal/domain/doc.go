// Package domain contains the core business entities of the tasks API: the
// Task itself, its priorities, the per-user statistics summary, and the
// validation errors shared by every layer above it. It has no knowledge of
// HTTP, SQL or caching.
package domain
