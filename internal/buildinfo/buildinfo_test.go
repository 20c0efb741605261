package buildinfo

import (
	"runtime"
	"runtime/debug"
	"testing"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
}

func TestCurrentFromBuildInfo(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.24.1",
		Main:      debug.Module{Path: "github.com/aidanlsb/iniref", Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "windows"},
			{Key: "GOARCH", Value: "amd64"},
		},
	}, true)

	got := Current()
	want := Info{
		Version:    "v0.4.0",
		ModulePath: "github.com/aidanlsb/iniref",
		Commit:     "abc123",
		CommitTime: "2026-09-30T12:00:00Z",
		Modified:   true,
		GoVersion:  "go1.24.1",
		GOOS:       "windows",
		GOARCH:     "amd64",
	}
	if got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
}

func TestCurrentWithoutBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil, false)

	got := Current()
	if got.Version != "devel" || got.ModulePath != ModulePath {
		t.Errorf("Current() = %+v", got)
	}
	if got.GoVersion != runtime.Version() || got.GOOS != runtime.GOOS || got.GOARCH != runtime.GOARCH {
		t.Errorf("runtime fields not filled: %+v", got)
	}
}

func TestCurrentLdflagsFallback(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	prevVersion, prevCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = prevVersion, prevCommit })
	Version, Commit = "v1.0.0", "feedface"

	got := Current()
	if got.Version != "v1.0.0" || got.Commit != "feedface" {
		t.Errorf("ldflags values not applied: %+v", got)
	}
}
