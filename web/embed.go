// Package web embeds the page templates and the static assets served under /static.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds layouts, partials and pages.
//
//go:embed templates/**/*.html
var Templates embed.FS

//go:embed static/**/*
var static embed.FS

// Static returns the asset tree rooted at static/, so /static/js/poll.js maps to js/poll.js.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}
