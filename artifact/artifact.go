package artifact

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/wippyai/componentize-go/errors"
)

const (
	testSuffix = "_test.wasm"
	// rootName names a package path with no segments. No segment encodes
	// to a leading bare '_', so it cannot collide.
	rootName = "_root"
)

// segmentEscaper keeps the '_' separator unambiguous inside segments.
var segmentEscaper = strings.NewReplacer("~", "~~", "_", "~_")

// TestFilename derives the test artifact file name for a Go package path.
// The last two meaningful segments are joined with '_', so
// "./internal/http/router" becomes "http_router_test.wasm". Inside a
// segment '_' is written as "~_" and '~' as "~~", which keeps names of
// distinct trailing segments distinct: "./a_b/c" is "a~_b_c_test.wasm"
// and "./a/b_c" is "a_b~_c_test.wasm".
func TestFilename(pkgPath string) string {
	var segs []string
	norm := strings.ReplaceAll(filepath.ToSlash(pkgPath), `\`, "/")
	for _, s := range strings.Split(norm, "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		segs = append(segs, segmentEscaper.Replace(s))
	}
	switch len(segs) {
	case 0:
		return rootName + testSuffix
	case 1:
		return segs[0] + testSuffix
	default:
		return segs[len(segs)-2] + "_" + segs[len(segs)-1] + testSuffix
	}
}

// Store reads and writes whole artifacts on a filesystem.
type Store struct {
	Fs afero.Fs
}

// OS is the store backed by the host filesystem.
var OS = Store{Fs: afero.NewOsFs()}

// ReadFile reads the artifact at path.
func (s Store) ReadFile(phase errors.Phase, path string) ([]byte, error) {
	b, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return nil, errors.IO(phase, path, err)
	}
	return b, nil
}

// WriteFile replaces path with data. The bytes go to a temp file in the
// same directory which is then renamed over path, so readers see either the
// old or the new content, never a partial write. An existing file keeps its
// permissions.
func (s Store) WriteFile(phase errors.Phase, path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := s.Fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := afero.TempFile(s.Fs, dir, "."+base+".tmp-*")
	if err != nil {
		return errors.IO(phase, path, err)
	}
	name := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		s.Fs.Remove(name)
		return errors.IO(phase, path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		s.Fs.Remove(name)
		return errors.IO(phase, path, err)
	}
	if err := s.Fs.Chmod(name, mode); err != nil {
		s.Fs.Remove(name)
		return errors.IO(phase, path, err)
	}
	if err := s.Fs.Rename(name, path); err != nil {
		s.Fs.Remove(name)
		return errors.IO(phase, path, err)
	}
	return nil
}

// ReadFile reads path from the host filesystem.
func ReadFile(phase errors.Phase, path string) ([]byte, error) {
	return OS.ReadFile(phase, path)
}

// WriteFile atomically replaces path on the host filesystem.
func WriteFile(phase errors.Phase, path string, data []byte) error {
	return OS.WriteFile(phase, path, data)
}
