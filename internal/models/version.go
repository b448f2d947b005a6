// Package models provides core data structures for the update relay service.
// This file contains the version value type used for update resolution.
//
// Design Decisions:
// - Accepts exactly three dot-separated numeric segments, nothing else
// - An optional single leading non-digit tag (usually "v") is stripped
// - Both "v1.2.3" and "1.2.3" parse and compare equal; the original
//   spelling is preserved for echoing back to clients
// - Ordering is delegated to Masterminds/semver after shape validation
package models

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned when a version string does not match the
// [v]X.Y.Z format. Handlers map it to HTTP 400.
var ErrInvalidVersion = errors.New("invalid version")

// maxVersionLength caps input before any parsing. Update checks put the
// version in a query parameter, so reject absurd input early.
const maxVersionLength = 20

// versionPattern matches three dot-separated non-negative integers with no
// extraneous characters. Leading zeros are rejected ("01.0.0" is not a
// version a release pipeline produces).
var versionPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)$`)

// Version is an immutable parsed version. Two Versions are totally ordered
// by (major, minor, patch); the prefix tag does not participate in ordering.
type Version struct {
	sv  *semver.Version
	raw string
}

// ParseVersion parses a version string of the form "X.Y.Z" or "vX.Y.Z"
// (any single non-digit prefix character is accepted in place of "v").
// All failures wrap ErrInvalidVersion.
func ParseVersion(s string) (*Version, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}
	if len(s) > maxVersionLength {
		return nil, fmt.Errorf("%w: string too long (%d chars)", ErrInvalidVersion, len(s))
	}

	core := s
	if s[0] < '0' || s[0] > '9' {
		core = s[1:]
	}

	if !versionPattern.MatchString(core) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	sv, err := semver.StrictNewVersion(core)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}

	return &Version{sv: sv, raw: s}, nil
}

// MustParseVersion is a test helper that panics on parse failure.
func MustParseVersion(s string) *Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original version string, prefix included.
func (v *Version) String() string {
	return v.raw
}

func (v *Version) Major() int { return int(v.sv.Major()) }
func (v *Version) Minor() int { return int(v.sv.Minor()) }
func (v *Version) Patch() int { return int(v.sv.Patch()) }

// Compare returns -1, 0 or +1 comparing (major, minor, patch) elementwise,
// major first. The prefix tag and original spelling are ignored.
func (v *Version) Compare(other *Version) int {
	return v.sv.Compare(other.sv)
}

func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

func (v *Version) GreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}
