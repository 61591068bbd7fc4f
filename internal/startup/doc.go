// Package startup handles application initialization: environment
// configuration, structured startup and shutdown logging, and build
// information.
package startup
