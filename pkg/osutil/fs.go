package osutil

import (
	"io"
	"os"
)

// Mkdir creates a single directory.
func Mkdir(path string) error {
	return os.Mkdir(path, 0755)
}

// MkdirAll creates a directory and any missing parents.  It is
// idempotent.
func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Remove deletes a single file or empty directory.
func Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes a path recursively.  A missing path is not an
// error.
func RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Rename moves a filesystem entry.
func Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Copy duplicates a regular file, preserving its permission bits.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteFile creates a file with the given contents.
func WriteFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}

// ReadFile returns the contents of a file as a string.
func ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}
