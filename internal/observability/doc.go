// Package observability groups the watcher's logging helpers.
package observability
