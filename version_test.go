package graphin

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("Expected go version %s, got %s", runtime.Version(), info.GoVersion)
	}
	if info.Commit == "" || info.BuildDate == "" {
		t.Errorf("Expected commit and build date to be filled, got %+v", info)
	}
}

func TestGetBuildInfoLdflags(t *testing.T) {
	commit, date := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = commit, date }()

	GitCommit, BuildDate = "abc123", "2024-01-01"
	info := GetBuildInfo()
	if info.Commit != "abc123" || info.BuildDate != "2024-01-01" {
		t.Errorf("Expected ldflags values to win, got %+v", info)
	}
}

func TestGetVersion(t *testing.T) {
	if !strings.HasPrefix(GetVersion(), "graphin "+Version) {
		t.Errorf("Unexpected version string %q", GetVersion())
	}
}
