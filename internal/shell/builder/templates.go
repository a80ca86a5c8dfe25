package builder

import (
	"embed"
	"io/fs"
)

// Default template sets, compiled into the binary. Targets that need custom
// config point the builder at on-disk template directories instead.

//go:embed all:templates
var templatesFS embed.FS

// DefaultWebappTemplates returns the built-in webapp config template set.
func DefaultWebappTemplates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates/webapp")
	if err != nil {
		panic(err) // embedded path, cannot fail
	}
	return sub
}

// DefaultNginxTemplates returns the built-in reverse-proxy template set.
func DefaultNginxTemplates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates/nginx")
	if err != nil {
		panic(err)
	}
	return sub
}
