// Package catalogs provides the embedded default icon catalog and icon sources.
package catalogs

import (
	"embed"
	"io/fs"
)

// IconsJSON is the bundled icon catalog, embedded at build time.
//
//go:embed icons.json
var IconsJSON []byte

//go:embed svg/*.svg
var sources embed.FS

// Sources returns the bundled icon sources rooted at the svg directory.
func Sources() fs.FS {
	sub, err := fs.Sub(sources, "svg")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}
