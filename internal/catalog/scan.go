// Package catalog finds slideshow images and hands them out in shuffled order.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageSuffixes = []string{".jpg", ".png"}

// ErrEmptyRoot is wrapped by the ScanError returned for an empty root.
var ErrEmptyRoot = errors.New("photo root is empty")

// ScanError reports a directory that could not be listed.
type ScanError struct {
	Dir string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Dir, e.Err)
}

// Unwrap exposes the underlying filesystem error.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// Scan walks root depth-first and returns the absolute paths of every
// regular file whose name ends in .jpg or .png, case-insensitively.
// Symlinked directories are followed and cycles are not detected.
func Scan(root string) ([]string, error) {
	if root == "" {
		return nil, &ScanError{Dir: root, Err: ErrEmptyRoot}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Dir: root, Err: err}
	}
	var paths []string
	if err := scanDir(abs, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

func scanDir(dir string, paths *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &ScanError{Dir: dir, Err: err}
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		info, err := os.Stat(full)
		if err != nil {
			// Dangling symlink or entry removed mid-scan.
			continue
		}
		switch {
		case info.IsDir():
			if err := scanDir(full, paths); err != nil {
				return err
			}
		case info.Mode().IsRegular() && IsImageName(entry.Name()):
			*paths = append(*paths, full)
		}
	}
	return nil
}

// IsImageName reports whether name carries a slideshow image suffix.
func IsImageName(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
