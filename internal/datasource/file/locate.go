// Package file implements the local filesystem side of the pipeline: locating
// input files under a directory tree and opening them for parsing.
package file

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExt is the extension of song-metadata and event-log files.
const DefaultExt = ".json"

// Locate walks root recursively and returns the absolute paths of all regular
// files whose base name matches "*"+ext. The result is sorted so that runs
// over the same tree process files in the same order.
//
// Like a shell glob, names starting with "." are skipped. Symlinks to regular
// files are returned under the link path; symlinked directories are not
// descended into.
//
// An empty tree yields an empty slice. A missing or unreadable directory is
// returned as an error.
func Locate(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExt
	}
	pattern := "*" + ext

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", root, err)
	}

	out := []string{}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", root, err)
	}

	sort.Strings(out)
	return out, nil
}

// isRegular reports whether d is a regular file or a symlink that resolves to
// one.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
