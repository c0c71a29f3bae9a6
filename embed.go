package nowdir

import "embed"

// EmbeddedAssets contains the shared static assets served under /public/:
// styles.css and favicon.svg.
//
//go:embed public/*
var EmbeddedAssets embed.FS
