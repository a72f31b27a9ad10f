package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestScanFindsImagesCaseInsensitively(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.JPG", "b.png", "c.txt", "sub/d.jpg"} {
		touch(t, filepath.Join(root, filepath.FromSlash(name)))
	}

	got, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	sort.Strings(got)
	want := []string{
		filepath.Join(root, "a.JPG"),
		filepath.Join(root, "b.png"),
		filepath.Join(root, "sub", "d.jpg"),
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Scan = %v, want %v", got, want)
		}
	}
}

func TestScanReturnsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x.png"))
	chdir(t, root)

	got, err := Scan(".")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(got) != 1 || !filepath.IsAbs(got[0]) {
		t.Fatalf("Scan = %v, want one absolute path", got)
	}
}

func TestScanIgnoresDirectoriesNamedLikeImages(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "album.jpg"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	touch(t, filepath.Join(root, "album.jpg", "inner.png"))

	got, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "inner.png" {
		t.Fatalf("Scan = %v, want only inner.png", got)
	}
}

func TestScanEmptyTree(t *testing.T) {
	got, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Scan = %v, want empty", got)
	}
}

func TestScanMissingRootFails(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	var se *ScanError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *ScanError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want it to wrap ErrNotExist", err)
	}
}

func TestIsImageName(t *testing.T) {
	for _, name := range []string{"a.jpg", "A.JPG", "b.Png", "x.y.png"} {
		if !IsImageName(name) {
			t.Fatalf("expected %q to be an image", name)
		}
	}
	for _, name := range []string{"a.jpeg", "b.gif", "jpg", "c.png.txt"} {
		if IsImageName(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestScanEmptyRootFails(t *testing.T) {
	chdir(t, t.TempDir())
	touch(t, "stray.jpg")

	got, err := Scan("")
	var se *ScanError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *ScanError", err)
	}
	if !errors.Is(err, ErrEmptyRoot) {
		t.Fatalf("err = %v, want ErrEmptyRoot", err)
	}
	if got != nil {
		t.Fatalf("Scan = %v, want nil", got)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
