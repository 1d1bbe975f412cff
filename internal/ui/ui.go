// Package ui embeds the HTML templates served by the server.
package ui

import "embed"

//go:embed *.html
var Templates embed.FS
