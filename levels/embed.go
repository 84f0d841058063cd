package levels

import (
	"embed"
	"io/fs"
)

//go:embed default/*.json
var defaultsFS embed.FS

// DefaultFS exposes the bundled levels, rooted so that "level1.json" resolves.
func DefaultFS() fs.FS {
	sub, err := fs.Sub(defaultsFS, "default")
	if err != nil {
		panic(err)
	}
	return sub
}
