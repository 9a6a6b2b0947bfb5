// Package simfiles discovers sim-requests files and labels them for display.
package simfiles

import (
	"path/filepath"
	"strings"
)

// File name convention for simulation request logs: sim-requests-<anything>.txt
const (
	FilePrefix = "sim-requests-"
	FileSuffix = ".txt"
)

// Match reports whether a bare file name follows the sim-requests naming
// convention. Matching is case-sensitive.
func Match(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.HasSuffix(name, FileSuffix)
}

// Allowed reports whether the file at path may be served by name alone.
// Only the base name is checked; the directory part is not constrained.
func Allowed(path string) bool {
	return Match(filepath.Base(path))
}
