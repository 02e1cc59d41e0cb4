// Package assets embeds the static files served by the web server.
package assets

import _ "embed"

var (
	// IndexTemplate is the html/template source of the lookup page.
	//go:embed index.html.tpl
	IndexTemplate string

	// Style is the page stylesheet, inlined into the page.
	//go:embed style.css
	Style string

	// Favicon is the site icon.
	//go:embed favicon.svg
	Favicon []byte
)
