// Package templates embeds the HTML mail templates.
package templates

import "embed"

//go:embed *.html
var FS embed.FS
