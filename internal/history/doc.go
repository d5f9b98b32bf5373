// Package history records finished merges in a local SQLite database.
//
// Each row captures the resolved stream mappings and outcome of one
// merge so users can see what a past invocation actually mapped. The
// store is append-only from the application's point of view; schema
// changes bump a version and reject old databases instead of migrating.
package history
