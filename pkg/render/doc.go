// Package render turns form state into renderer-agnostic frames and the
// diffs between them. It never touches a terminal.
package render
