package frontend

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Content returns the embedded landing page filesystem
func Content() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
