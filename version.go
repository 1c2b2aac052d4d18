package stepform

import _ "embed"

// Version is the release version. Trim it before display.
//
//go:embed VERSION
var Version string
