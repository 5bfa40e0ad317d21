// SPDX-License-Identifier: MIT
//
// Package build carries the version stamp of the spectra binary. Release
// builds set it through the linker:
//
//	go build -ldflags "-X spectra/pkg/build.buildName=spectra \
//	  -X spectra/pkg/build.buildTime=$(date -u +%FT%TZ) \
//	  -X spectra/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X spectra/pkg/build.buildVersion=0.1.0"
//
// A plain `go build` leaves them empty and the binary reports itself as a dev
// build.
package build

import (
	"errors"
	"fmt"
)

const (
	DefaultName = "spectra"
	Description = "Real-time audio spectrum analyzer"
)

// ErrMissingFlag is wrapped by Initialize for every unset linker variable.
var ErrMissingFlag = errors.New("build flag not set")

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String is the --version line.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// Set by -ldflags -X.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = devFlags()
)

func devFlags() *ldFlags {
	return &ldFlags{Name: DefaultName, Time: "unknown", Commit: "unknown", Version: "dev"}
}

// Initialize installs the linker-provided stamp. If any variable is unset it
// installs nothing and reports every missing one; the dev stamp stays in use.
func Initialize() error {
	stamp := []struct {
		flag  string
		value string
	}{
		{"buildName", buildName},
		{"buildTime", buildTime},
		{"buildCommit", buildCommit},
		{"buildVersion", buildVersion},
	}

	var errs []error
	for _, s := range stamp {
		if s.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFlag, s.flag))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	buildFlags = &ldFlags{Name: buildName, Time: buildTime, Commit: buildCommit, Version: buildVersion}
	return nil
}

// GetBuildFlags returns the active stamp.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
