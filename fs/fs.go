// Package appfs embeds the SQL migrations and static assets into the binary.
package appfs

import "embed"

//go:embed all:migrations all:assets
var FS embed.FS
