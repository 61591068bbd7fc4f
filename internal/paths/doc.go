// Package paths resolves between the canonical root-relative,
// forward-slash paths stored in metadata records and absolute
// filesystem paths, enforcing containment within the configured image
// root. It also locates the reserved metadata directory and walks the
// root for indexable image files.
package paths
