package slurm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/qsup/errors"
)

// MinJSONVersion is the oldest Slurm release whose squeue and sacct accept
// --json with the response layout decoded here.
const MinJSONVersion = ">= 21.8.0"

// ParseRelease parses a Slurm release string such as "23.02.7" or
// "21.08.5-2". Slurm zero-pads the minor number, which semver rejects, so
// numeric segments are normalized first. Package revisions after "-" or "+"
// are dropped; they would otherwise read as semver pre-releases and fail
// every constraint.
func ParseRelease(release string) (*semver.Version, error) {
	release = strings.TrimSpace(release)
	if release == "" {
		return nil, errors.New("empty scheduler release")
	}

	core := release
	if i := strings.IndexAny(release, "-+"); i >= 0 {
		core = release[:i]
	}

	segments := strings.Split(core, ".")
	if len(segments) > 3 {
		return nil, errors.Newf("invalid scheduler release %q", release)
	}
	for len(segments) < 3 {
		segments = append(segments, "0")
	}
	for i, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 {
			return nil, errors.Newf("invalid scheduler release %q", release)
		}
		segments[i] = strconv.Itoa(n)
	}

	v, err := semver.NewVersion(strings.Join(segments, "."))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid scheduler release %q", release)
	}
	return v, nil
}

// CheckVersion reports whether release satisfies MinJSONVersion.
func CheckVersion(release string) error {
	v, err := ParseRelease(release)
	if err != nil {
		return err
	}

	constraint, err := semver.NewConstraint(MinJSONVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", MinJSONVersion)
	}

	if !constraint.Check(v) {
		return errors.WithHint(
			errors.Newf("scheduler release %s does not support --json output (requires %s)", release, MinJSONVersion),
			fmt.Sprintf("ask your cluster administrators about upgrading Slurm; %s is too old", v),
		)
	}
	return nil
}
