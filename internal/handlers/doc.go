// Package handlers implements the HTTP API: folder listings, metadata
// reads and updates, bookmark management, thumbnail serving, and the
// health and version endpoints.
package handlers
