// Package media provides the file-level collaborators the metadata
// store needs when it first sees an image: MD5 content hashing, prompt
// extraction from PNG text chunks, image dimension probing, and
// thumbnail generation.
package media
