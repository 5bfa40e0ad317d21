// SPDX-License-Identifier: MIT
package build

import (
	"errors"
	"strings"
	"testing"
)

// setStamp sets the linker variables for one test and restores them after.
func setStamp(t *testing.T, name, when, commit, version string) {
	t.Helper()
	saved := []string{buildName, buildTime, buildCommit, buildVersion}
	savedFlags := buildFlags
	t.Cleanup(func() {
		buildName, buildTime, buildCommit, buildVersion = saved[0], saved[1], saved[2], saved[3]
		buildFlags = savedFlags
	})

	buildName, buildTime, buildCommit, buildVersion = name, when, commit, version
	buildFlags = devFlags()
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		desc    string
		stamp   [4]string
		missing []string
	}{
		{"Release stamp", [4]string{"spectra", "2025-04-13T10:00:00Z", "abcdef1", "0.3.0"}, nil},
		{"Dev build", [4]string{}, []string{"buildName", "buildTime", "buildCommit", "buildVersion"}},
		{"Commit only missing", [4]string{"spectra", "2025-04-13T10:00:00Z", "", "0.3.0"}, []string{"buildCommit"}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			setStamp(t, tt.stamp[0], tt.stamp[1], tt.stamp[2], tt.stamp[3])
			err := Initialize()

			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("Initialize() = %v", err)
				}
				got := *GetBuildFlags()
				want := ldFlags{Name: tt.stamp[0], Time: tt.stamp[1], Commit: tt.stamp[2], Version: tt.stamp[3]}
				if got != want {
					t.Errorf("GetBuildFlags() = %+v, want %+v", got, want)
				}
				return
			}

			if !errors.Is(err, ErrMissingFlag) {
				t.Fatalf("Initialize() = %v, want ErrMissingFlag", err)
			}
			for _, flag := range tt.missing {
				if !strings.Contains(err.Error(), flag) {
					t.Errorf("error %q does not name %s", err, flag)
				}
			}
			if got := *GetBuildFlags(); got != *devFlags() {
				t.Errorf("partial stamp installed: %+v", got)
			}
		})
	}
}

func TestVersionLine(t *testing.T) {
	setStamp(t, "", "", "", "")
	if got, want := GetBuildFlags().String(), "dev (commit unknown, built unknown)"; got != want {
		t.Errorf("dev String() = %q, want %q", got, want)
	}

	setStamp(t, "spectra", "2025-04-13", "abcdef1", "0.3.0")
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if got, want := GetBuildFlags().String(), "0.3.0 (commit abcdef1, built 2025-04-13)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
