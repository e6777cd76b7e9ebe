package types

import "fmt"

// SpecError is returned when a BuildSpec is missing required fields
// or contains ones that cannot be parsed.  Nothing is staged after a
// SpecError.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid spec: field %q %s", e.Field, e.Reason)
}

// ModeParseError is returned for permission strings that are not
// valid octal.
type ModeParseError struct {
	Input string
}

func (e *ModeParseError) Error() string {
	return fmt.Sprintf("invalid octal mode string %q", e.Input)
}

// FileNotFoundError is returned when a manifest entry's source path
// does not exist on the build host.
type FileNotFoundError struct {
	Src string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("manifest source %q does not exist", e.Src)
}

// DuplicateDestinationError is returned when two manifest entries
// resolve to the same install path.
type DuplicateDestinationError struct {
	Dst string
}

func (e *DuplicateDestinationError) Error() string {
	return fmt.Sprintf("manifest already contains destination %q", e.Dst)
}

// DriverError wraps a build driver failure, carrying whatever the
// driver printed to stderr.
type DriverError struct {
	Driver string
	Output string
	Err    error
}

func (e *DriverError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s driver failed: %s", e.Driver, e.Output)
	}
	return fmt.Sprintf("%s driver failed: %v", e.Driver, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// DownloadError wraps a downloader failure.  By the time one of
// these is returned any partially written destination file has been
// removed.
type DownloadError struct {
	URL    string
	Reason string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s failed: %s", e.URL, e.Reason)
}

// VcsError wraps a failure from the version control collaborator.
type VcsError struct {
	Op  string
	Err error
}

func (e *VcsError) Error() string {
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *VcsError) Unwrap() error { return e.Err }

// EmissionError wraps a failure during package assembly.  Emission
// guarantees no partial archive is visible at the destination path
// when one of these is returned.
type EmissionError struct {
	Stage string
	Err   error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("package emission failed during %s: %v", e.Stage, e.Err)
}

func (e *EmissionError) Unwrap() error { return e.Err }

// IncompatibleFormatError is returned when merge input is not an
// archive of the format this system emits.
type IncompatibleFormatError struct {
	Path   string
	Reason string
}

func (e *IncompatibleFormatError) Error() string {
	return fmt.Sprintf("%s is not a compatible package archive: %s", e.Path, e.Reason)
}
