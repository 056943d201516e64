// Package templates embeds the default configuration and example job files.
package templates

import "embed"

//go:embed config.yaml job.yaml
var FS embed.FS
