// Package listing implements the browse-view operations over metadata
// records: search filtering (including the tags: query syntax),
// sorting, and pagination.
package listing
