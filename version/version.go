// Package version provides the vaultrun version strings.
package version

import (
	_ "embed"
	"strings"
)

// buildVersion can be overridden at compile time by using:
//
//	go run -ldflags "-X github.com/vaultrun/vaultrun/version.buildVersion=abc" . --version
//
// Release binaries are always built with the buildVersion variable set.

//go:embed VERSION
var baseVersion string
var buildVersion string

func Version() string {
	return strings.TrimSpace(baseVersion)
}

func BuildVersion() string {
	if buildVersion == "" {
		return "x"
	}
	return buildVersion
}
