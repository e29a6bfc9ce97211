// Package misc keeps program identity set at build time.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// Set with -ldflags "-X mdql/misc.version=... -X mdql/misc.gitHash=...".
var (
	version = "dev"
	gitHash = "unknown"
	appName = ""
)

// GetAppName returns program name without extension.
func GetAppName() string {
	if len(appName) > 0 {
		return appName
	}
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
