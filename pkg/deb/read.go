package deb

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/linuxerwang/ar"
	"github.com/ulikunitz/xz"

	"github.com/the-maldridge/pallet/pkg/types"
)

// ExtractData unpacks the data member of an existing package archive
// into dir, which must already exist.  The input must be an archive
// of the same format this package emits.
func ExtractData(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return &types.IncompatibleFormatError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	rdr := ar.NewReader(f)
	sawMarker := false
	for {
		hdr, err := rdr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &types.IncompatibleFormatError{Path: path, Reason: err.Error()}
		}
		name := strings.TrimRight(hdr.Name, "/ ")
		if name == "debian-binary" {
			sawMarker = true
			continue
		}
		if !strings.HasPrefix(name, "data.tar") {
			continue
		}
		if !sawMarker {
			return &types.IncompatibleFormatError{Path: path, Reason: "data member precedes format marker"}
		}

		var dec io.Reader
		switch {
		case strings.HasSuffix(name, "gz"):
			gz, err := gzip.NewReader(rdr)
			if err != nil {
				return &types.IncompatibleFormatError{Path: path, Reason: err.Error()}
			}
			defer gz.Close()
			dec = gz
		case strings.HasSuffix(name, "xz"):
			xr, err := xz.NewReader(rdr)
			if err != nil {
				return &types.IncompatibleFormatError{Path: path, Reason: err.Error()}
			}
			dec = xr
		default:
			return &types.IncompatibleFormatError{Path: path, Reason: "could not determine compression type"}
		}
		if err := untar(dec, dir); err != nil {
			return &types.IncompatibleFormatError{Path: path, Reason: err.Error()}
		}
		return nil
	}
	return &types.IncompatibleFormatError{Path: path, Reason: "no data member found"}
}

// untar unpacks a tar stream into dir, refusing entries that would
// escape it.
func untar(r io.Reader, dir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.Clean("/"+hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) && target != filepath.Clean(dir) {
			return fmt.Errorf("entry %q escapes the extraction root", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)&0777); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
