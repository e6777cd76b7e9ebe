package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed Debian-style version:
// [epoch:]upstream_version[-debian_revision].  The upstream portion
// is restricted to at most three dotted numeric sections, optionally
// prefixed with "v".
type Version struct {
	Epoch    uint32
	Major    uint32
	Minor    uint32
	Patch    uint32
	Revision string
}

// ParseVersion parses a version string, failing on anything the
// emitter could not render back into a package filename.
func ParseVersion(s string) (Version, error) {
	var v Version
	if s == "" {
		return v, errors.New("empty version value")
	}
	if epoch, rest, ok := strings.Cut(s, ":"); ok {
		n, err := strconv.ParseUint(epoch, 10, 32)
		if err != nil {
			return v, fmt.Errorf("bad epoch %q", epoch)
		}
		v.Epoch = uint32(n)
		s = rest
	}
	if ix := strings.IndexAny(s, "~+-"); ix >= 0 {
		v.Revision = s[ix:]
		s = s[:ix]
	}
	s = strings.TrimPrefix(s, "v")
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return v, errors.New("version has too many sections")
	}
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return v, fmt.Errorf("bad version section %q", part)
		}
		switch i {
		case 0:
			v.Major = uint32(n)
		case 1:
			v.Minor = uint32(n)
		case 2:
			v.Patch = uint32(n)
		}
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d:%d.%d.%d%s", v.Epoch, v.Major, v.Minor, v.Patch, v.Revision)
}

// Compare orders two versions the way dpkg would, epoch first.
func (v Version) Compare(o Version) int {
	for _, p := range [][2]uint32{
		{v.Epoch, o.Epoch},
		{v.Major, o.Major},
		{v.Minor, o.Minor},
		{v.Patch, o.Patch},
	} {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return strings.Compare(v.Revision, o.Revision)
}
