// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains the built frontend (frontend/dist), served directly via
// HTTP by the shell server. The dist directory is refreshed from the
// frontend build during CI.
//
//go:embed frontend/dist
var Files embed.FS
