package deb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/types"
)

// EmitOptions controls where and how the package archive is written.
type EmitOptions struct {
	// Dest is the directory the final .deb lands in.
	Dest string

	Compression Compression
}

// Emit turns a finalized spec and its manifest into a package
// archive on disk and returns the final path.  The archive is
// assembled in memory and staged through a temporary file in Dest;
// nothing is visible at the final path unless every step succeeded.
func Emit(l hclog.Logger, spec *types.BuildSpec, opts EmitOptions) (string, error) {
	l = l.Named("emitter")

	if err := validate(spec); err != nil {
		return "", &types.EmissionError{Stage: "validation", Err: err}
	}

	ext := opts.Compression.extension()

	dataBuf := &bytes.Buffer{}
	dataEnc, err := opts.Compression.newWriter(dataBuf)
	if err != nil {
		return "", &types.EmissionError{Stage: "compression", Err: err}
	}
	builder := newDataBuilder(dataEnc, time.Now())
	for _, f := range spec.Files {
		l.Debug("Adding manifest entry", "src", f.Src, "dst", f.Dst)
		if err := builder.Add(f); err != nil {
			return "", &types.EmissionError{Stage: "data tree", Err: err}
		}
	}
	if err := builder.Close(); err != nil {
		return "", &types.EmissionError{Stage: "data tree", Err: err}
	}
	if err := dataEnc.Close(); err != nil {
		return "", &types.EmissionError{Stage: "compression", Err: err}
	}

	ctrlBuf := &bytes.Buffer{}
	ctrlEnc, err := opts.Compression.newWriter(ctrlBuf)
	if err != nil {
		return "", &types.EmissionError{Stage: "compression", Err: err}
	}
	if err := controlTarball(ctrlEnc, spec, builder.Size(), builder.Hashes(), builder.time); err != nil {
		return "", &types.EmissionError{Stage: "control member", Err: err}
	}
	if err := ctrlEnc.Close(); err != nil {
		return "", &types.EmissionError{Stage: "compression", Err: err}
	}

	final := filepath.Join(opts.Dest, spec.Filename())
	tmp, err := os.CreateTemp(opts.Dest, ".pallet-*.deb")
	if err != nil {
		return "", &types.EmissionError{Stage: "archive write", Err: err}
	}
	published := false
	defer func() {
		if !published {
			os.Remove(tmp.Name())
		}
	}()

	if err := writeContainer(tmp, ext, ctrlBuf.Bytes(), dataBuf.Bytes()); err != nil {
		tmp.Close()
		return "", &types.EmissionError{Stage: "archive write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &types.EmissionError{Stage: "archive write", Err: err}
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", &types.EmissionError{Stage: "archive publish", Err: err}
	}
	published = true

	l.Info("Emitted package", "path", final, "files", len(builder.Hashes()))
	return final, nil
}

func writeContainer(f *os.File, ext string, control, data []byte) error {
	a, err := newArchive(f)
	if err != nil {
		return err
	}
	if err := a.init(); err != nil {
		return err
	}
	if err := a.appendMember("control.tar."+ext, control); err != nil {
		return err
	}
	return a.appendMember("data.tar."+ext, data)
}

// validate re-checks invariants the session already guarantees.  A
// corrupted manifest must never reach the archive writer.
func validate(spec *types.BuildSpec) error {
	if spec.Package == "" || spec.Version == "" {
		return fmt.Errorf("package and version are required")
	}
	if strings.ContainsAny(spec.Package, "/ \t\n") || strings.ContainsAny(spec.Version, "/ \t\n") {
		return fmt.Errorf("package and version may not contain path or whitespace characters")
	}
	if spec.Arch == types.ArchInvalid {
		return fmt.Errorf("architecture is invalid")
	}
	if spec.Priority == types.PriorityInvalid {
		return fmt.Errorf("priority is invalid")
	}

	seen := make(map[string]bool, len(spec.Files))
	for _, f := range spec.Files {
		if !strings.HasPrefix(f.Dst, "/") {
			return fmt.Errorf("destination %q is not absolute", f.Dst)
		}
		if seen[f.Dst] {
			return &types.DuplicateDestinationError{Dst: f.Dst}
		}
		seen[f.Dst] = true
	}
	return nil
}
