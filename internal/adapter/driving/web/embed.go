package web

import "embed"

// StaticFS holds the embedded panel stylesheet and refresh script.
//
//go:embed static/*
var StaticFS embed.FS
