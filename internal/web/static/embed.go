// Package static holds the viewer page served at the server root.
package static

import (
	"embed"
	"io/fs"
)

//go:embed index.html app.js
var files embed.FS

// Files returns the viewer assets.
func Files() fs.FS {
	return files
}
