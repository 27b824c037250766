// Package formats reads and writes the binary files the shadow compiler
// produces.
package formats
