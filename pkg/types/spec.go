package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// A BuildSpec is the declarative description of one package as
// provided by a build script.  It is validated once at session
// construction and treated as immutable afterwards; the session adds
// to Files but never rewrites the metadata.
type BuildSpec struct {
	Package     string
	Name        string
	Version     string
	Description string
	Essential   bool
	Author      string
	Email       string
	Maintainer  string
	Homepage    string
	Section     string

	Files []File

	Dependencies []string
	Recommends   []string
	Suggests     []string

	Priority Priority
	Arch     Architecture
	Urgency  Urgency

	AptSources []AptSource
	Scripts    MaintainerScripts

	// BuildNo is appended to the version string when set by the
	// auto build-number machinery.
	BuildNo uint32
}

// MaintainerScripts carries the optional script bodies that ride
// along in the control member.
type MaintainerScripts struct {
	Preinst  string
	Postinst string
	Prerm    string
	Postrm   string
}

// An AptSource describes a third party apt repository that the
// emitted package should install alongside itself.  Emission turns
// these into generated preinst/postrm scripts.
type AptSource struct {
	Name       string
	URL        string
	Components string
	GPGKeyURL  string
}

// Validate checks the fields that must be present before a session
// can be constructed from this spec.
func (s *BuildSpec) Validate() error {
	if s.Package == "" {
		return &SpecError{Field: "package", Reason: "may not be empty"}
	}
	if s.Version == "" {
		return &SpecError{Field: "version", Reason: "may not be empty"}
	}
	if _, err := ParseVersion(s.Version); err != nil {
		return &SpecError{Field: "version", Reason: err.Error()}
	}
	if s.Arch == ArchInvalid {
		return &SpecError{Field: "arch", Reason: "unknown architecture"}
	}
	if s.Priority == PriorityInvalid {
		return &SpecError{Field: "priority", Reason: "unknown priority"}
	}
	return nil
}

// VersionString renders the effective version, folding in the build
// number when one has been assigned.
func (s *BuildSpec) VersionString() string {
	if s.BuildNo > 0 {
		return fmt.Sprintf("%s-%d", s.Version, s.BuildNo)
	}
	return s.Version
}

// Filename is the canonical name of the archive this spec emits.
func (s *BuildSpec) Filename() string {
	return fmt.Sprintf("%s-v%s_%s.deb", s.Package, s.VersionString(), s.Arch.String())
}

// Preprocess fills in destinations for files that were declared with
// only a source path.  When base is non-empty the destination becomes
// base joined with the source's filename, otherwise the source path
// is reused verbatim.
func (s *BuildSpec) Preprocess(base string) {
	for i := range s.Files {
		if s.Files[i].Dst != "" {
			continue
		}
		if base != "" {
			s.Files[i].Dst = filepath.Join(base, filepath.Base(s.Files[i].Src))
		} else {
			s.Files[i].Dst = s.Files[i].Src
		}
	}
}

// A File is one manifest entry: a source path on the build host and
// an absolute install-time destination.
type File struct {
	Src  string
	Dst  string
	Mode uint32

	// Dir marks an entry that only creates a directory at Dst.
	Dir bool
}

// DefaultFileMode is applied to entries declared without an explicit
// mode.
const DefaultFileMode = 0o644

// NewFile returns a File with the default mode.
func NewFile(src, dst string) File {
	return File{Src: src, Dst: dst, Mode: DefaultFileMode}
}

// ParseFileShorthand normalizes the "src:dst" shorthand form into a
// canonical File.  A bare "src" with no colon is legal; its
// destination is resolved later by Preprocess.
func ParseFileShorthand(s string) File {
	if src, dst, ok := strings.Cut(s, ":"); ok {
		return NewFile(src, dst)
	}
	return NewFile(s, "")
}
