// Package deb assembles Debian binary package archives from a
// finalized BuildSpec.  The emitted container is an ar archive with
// exactly three members in fixed order: the debian-binary format
// marker, the compressed control member, and the compressed data
// member.  Getting this order wrong breaks installation.
package deb

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/linuxerwang/ar"
	"github.com/ulikunitz/xz"
)

const formatMarker = "2.0\n"

// Compression selects the codec for the control and data members.
type Compression int

// Gzip is the default; Xz must be requested explicitly.
const (
	CompressGzip Compression = iota
	CompressXz
)

func (c Compression) extension() string {
	if c == CompressXz {
		return "xz"
	}
	return "gz"
}

func (c Compression) newWriter(w io.Writer) (io.WriteCloser, error) {
	if c == CompressXz {
		return xz.NewWriter(w)
	}
	return gzip.NewWriter(w), nil
}

// archive wraps the outer ar container.  Members share a single
// timestamp captured when the archive is opened.
type archive struct {
	w    *ar.Writer
	time time.Time
}

func newArchive(w io.Writer) (*archive, error) {
	arw := ar.NewWriter(w)
	if err := arw.WriteGlobalHeader(); err != nil {
		return nil, err
	}
	return &archive{w: arw, time: time.Now()}, nil
}

// init writes the format marker, which must be the first member.
func (a *archive) init() error {
	return a.appendMember("debian-binary", []byte(formatMarker))
}

func (a *archive) appendMember(name string, data []byte) error {
	hdr := &ar.Header{
		Name:    name,
		Size:    int64(len(data)),
		Mode:    0644,
		ModTime: a.time,
	}
	if err := a.w.WriteHeader(hdr); err != nil {
		return fmt.Errorf("could not write header for %s: %w", name, err)
	}
	if _, err := a.w.Write(data); err != nil {
		return fmt.Errorf("could not write member %s: %w", name, err)
	}
	return nil
}
