//go:build !debug

package ui

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// FS returns the embedded page templates and static assets (production: baked into binary).
func FS() fs.FS {
	return files
}
