package opinions

import "embed"

// StaticAssets holds the stylesheet and placeholder cover shipped with
// opinions, served under /public/.
//
//go:embed static/*
var StaticAssets embed.FS
