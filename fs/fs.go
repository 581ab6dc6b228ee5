// Package appfs embeds static assets so a deployed binary is self-contained.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
