package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	orig := Version
	defer func() { Version = orig }()
	Version = "1.2.3-rc.1"
	if got := Colored(); got != "1.2.3-rc.1" {
		t.Fatalf("Colored() = %q", got)
	}
	Version = "nightly"
	if got := Colored(); got != "nightly" {
		t.Fatalf("non-semver versions pass through, got %q", got)
	}
}

func TestLong(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "1.0.0", "", ""
	if got := Long(); got != "1.0.0" {
		t.Fatalf("Long() = %q", got)
	}
	GitCommit, BuildDate = "abc123", "2024-01-15"
	if got := Long(); got != "1.0.0 (abc123) built 2024-01-15" {
		t.Fatalf("Long() = %q", got)
	}
}
