//go:build debug

package ui

import (
	"io/fs"
	"os"
)

// FS returns a live filesystem rooted at ui/ (debug: reads from disk).
// Template and CSS edits are visible on restart without recompiling Go.
func FS() fs.FS {
	return os.DirFS("ui")
}
