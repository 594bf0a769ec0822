// Package version reports the version of ruvy and of the wazero it runs engines with.
package version

import (
	"runtime/debug"
)

// Default is returned when the binary carries no version, as with `go run`.
const Default = "dev"

const wazeroPath = "github.com/tetratelabs/wazero"

// version can be set with -ldflags "-X github.com/Shopify/ruvy/internal/version.version=v1.0.0".
var version string

// Get returns the ruvy version: the linker-provided one, else the module version, else Default.
func Get() string {
	if version != "" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return Default + "-" + s.Value[:12]
		}
	}
	return Default
}

// Wazero returns the version of the wazero dependency, or Default when unknown.
func Wazero() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return wazeroFromBuildInfo(info)
}

func wazeroFromBuildInfo(info *debug.BuildInfo) string {
	for _, dep := range info.Deps {
		if dep.Path != wazeroPath {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		if dep.Version != "" {
			return dep.Version
		}
	}
	return Default
}
