// Package buildinfo reports the version of the running addonmgr build.
package buildinfo

import (
	"runtime/debug"
)

// version is stamped at release time:
//
//	go build -ldflags "-X github.com/addonmgr/addonmgr/internal/buildinfo.version=v1.4.0"
var version string

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Version returns the version string for the current build.
//
// Resolution order: the ldflags stamp, then the module version recorded by
// go install, then a "dev-<hash>[-dirty]" pseudo-version from VCS metadata.
// "unknown" is returned only when no build info is embedded.
func Version() string {
	if version != "" {
		return version
	}

	info, ok := readBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion(info)
}

func devVersion(info *debug.BuildInfo) string {
	var revision string
	var modified bool

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}

	v := "dev-" + revision
	if modified {
		v += "-dirty"
	}
	return v
}
