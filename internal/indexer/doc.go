// Package indexer implements the batch index builder: it walks the
// image root, creates missing metadata records and thumbnails in a
// worker pool, and saves them in forced-flush batches.
package indexer
