package embed

import (
	"embed"
	"io/fs"
)

// publicFS contains the embedded browser frontend
//
//go:embed all:public
var publicFS embed.FS

// GetPublicFS returns the embedded public filesystem
func GetPublicFS() (fs.FS, error) {
	return fs.Sub(publicFS, "public")
}

// HasEmbeddedFiles checks if public files are embedded
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(publicFS, "public/index.html")
	return err == nil
}
