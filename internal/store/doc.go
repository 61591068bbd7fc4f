// Package store is the application-facing facade over the metadata
// engine. It normalizes incoming paths, creates records on first
// access (hash, prompt, tags), keeps the record/bookmark gauges
// current, and decides which mutations flush to disk immediately
// versus debounced.
package store
