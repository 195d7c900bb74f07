package graphin

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the module release. GitCommit and BuildDate may be set with
// -ldflags; otherwise they are read from the VCS stamp in the binary.
var (
	Version   = "v0.2.0"
	GitCommit = ""
	BuildDate = ""
)

// BuildInfo describes the running build.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// GetBuildInfo reports the version and build metadata.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = s.Value
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

// GetVersion returns a one-line version string.
func GetVersion() string {
	info := GetBuildInfo()
	return fmt.Sprintf("graphin %s (commit %s, built %s, %s)",
		info.Version, info.Commit, info.BuildDate, info.GoVersion)
}

// userAgent is sent by HTTPTransport unless the caller sets one.
func userAgent() string {
	return "graphin/" + Version
}
