// Package database implements the metadata persistence engine for the
// image browser application.
//
// The engine keeps the metadata and bookmarks tables in an in-memory
// SQLite mirror that is the authoritative state for the process
// lifetime. Mutations mark the mirror dirty and arm a debounced flush;
// after the quiescence interval (or immediately, for forced saves) the
// entire mirror is snapshotted to a single durable file under the
// image root using the SQLite online backup API.
//
// On startup the durable file is validated against the expected column
// set before import; a mismatched schema is rejected wholesale and the
// process starts with a fresh empty store. After a successful import a
// cleanup pass drops records whose image file no longer exists.
//
// All mirror access is guarded by a reader/writer lock: concurrent
// reads proceed together, writes are exclusive. The snapshot step of a
// flush holds the read side only for the duration of the backup copy.
package database
