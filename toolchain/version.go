package toolchain

import (
	"context"
	stderrors "errors"
	"regexp"
	"strconv"

	"github.com/coreos/go-semver/semver"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/process"
)

// Minimum supported Go release. Major must equal MinMajor exactly.
const (
	MinMajor = 1
	MinMinor = 25
)

var (
	// ErrVersionNotFound means the output had no go<major>.<minor>.<patch> token.
	ErrVersionNotFound = stderrors.New("no go version found")
	// ErrUnsupportedMajor means a major version other than 1.
	ErrUnsupportedMajor = stderrors.New("unsupported major version")
	// ErrVersionTooOld means go1.x with x below MinMinor.
	ErrVersionTooOld = stderrors.New("go version too old")
)

var goVersionPattern = regexp.MustCompile(`go(\d+)\.(\d+)\.(\d+)`)

// ParseGoVersion extracts the first go<major>.<minor>.<patch> token from the
// output of `go version`.
func ParseGoVersion(text string) (*semver.Version, error) {
	m := goVersionPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, errors.New(errors.PhaseGate, errors.KindVersion).
			Detail("failed to parse Go version from: %s", text).
			Cause(ErrVersionNotFound).
			Build()
	}
	var parts [3]int64
	for i := range parts {
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return nil, errors.New(errors.PhaseGate, errors.KindVersion).
				Detail("failed to parse Go version from: %s", text).
				Cause(err).
				Build()
		}
		parts[i] = n
	}
	return &semver.Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// CheckVersion accepts go1.25.0 and later 1.x releases.
func CheckVersion(v *semver.Version) error {
	if v.Major != MinMajor {
		return errors.New(errors.PhaseGate, errors.KindVersion).
			Detail("Go version is not valid. Expected '^%d.%d.0', found '%s'", MinMajor, MinMinor, v).
			Cause(ErrUnsupportedMajor).
			Build()
	}
	if v.Minor < MinMinor {
		return errors.New(errors.PhaseGate, errors.KindVersion).
			Detail("Go version is not valid. Expected '^%d.%d.0', found '%s'", MinMajor, MinMinor, v).
			Cause(ErrVersionTooOld).
			Build()
	}
	return nil
}

// Gate runs `<goPath> version` and validates the reported release.
// It must run before any build side effect.
func Gate(ctx context.Context, r process.Runner, goPath string) (*semver.Version, error) {
	if goPath == "" {
		goPath = DefaultGo
	}
	cmd := process.Command{
		Name:  goPath,
		Args:  []string{"version"},
		Phase: errors.PhaseGate,
	}
	res, err := r.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	v, err := ParseGoVersion(string(res.Stdout))
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(v); err != nil {
		return nil, err
	}
	return v, nil
}
