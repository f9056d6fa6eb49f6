package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
}

func TestGetLdflags(t *testing.T) {
	defer saveAndRestore()()
	Version = "v1.4.0"
	GitCommit = "0123456789abcdef"
	BuildTime = "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "v1.4.0" {
		t.Errorf("expected version v1.4.0, got %q", info.Version)
	}
	if info.GitCommit != "0123456" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("expected build time kept, got %q", info.BuildTime)
	}
}

func TestShort(t *testing.T) {
	defer saveAndRestore()()
	Version = "v1.4.0"
	GitCommit = "abcdef0"

	s := Short()
	if !strings.HasPrefix(s, "v1.4.0-abcdef0") {
		t.Errorf("expected v1.4.0-abcdef0 prefix, got %q", s)
	}
}

func TestUserAgent(t *testing.T) {
	defer saveAndRestore()()
	Version = "v2.0.0"

	if got := UserAgent(); got != "analyticskit/v2.0.0" {
		t.Errorf("expected analyticskit/v2.0.0, got %q", got)
	}
}
