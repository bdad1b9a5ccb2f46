// Package web embeds the page templates and static assets.
package web

import "embed"

// TemplatesFS holds templates/*.html.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds static/*.
//
//go:embed static/*
var StaticFS embed.FS
