package deb

import (
	"archive/tar"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/the-maldridge/pallet/pkg/types"
)

// renderControl produces the control file text.  Key order is fixed;
// installers are picky about little beyond it, but scripts diffing
// two packages appreciate determinism.
func renderControl(spec *types.BuildSpec, installedSize int64) ([]byte, error) {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "Package: %s\n", spec.Package)
	fmt.Fprintf(buf, "Version: %s\n", spec.VersionString())
	fmt.Fprintf(buf, "Architecture: %s\n", spec.Arch.String())
	if spec.Section != "" {
		fmt.Fprintf(buf, "Section: %s\n", spec.Section)
	} else {
		fmt.Fprintln(buf, "Section: misc")
	}
	if m := maintainer(spec); m != "" {
		fmt.Fprintf(buf, "Maintainer: %s\n", m)
	}
	if spec.Urgency != types.UrgencyUnset {
		fmt.Fprintf(buf, "Urgency: %s\n", spec.Urgency.String())
	}
	if installedSize > 0 {
		// Installed-Size is in KiB, rounded up.
		fmt.Fprintf(buf, "Installed-Size: %d\n", (installedSize+1023)/1024)
	}
	if spec.Homepage != "" {
		fmt.Fprintf(buf, "Homepage: %s\n", spec.Homepage)
	}
	if len(spec.Dependencies) > 0 {
		fmt.Fprintf(buf, "Depends: %s\n", strings.Join(spec.Dependencies, ", "))
	}
	if len(spec.Recommends) > 0 {
		fmt.Fprintf(buf, "Recommends: %s\n", strings.Join(spec.Recommends, ", "))
	}
	if len(spec.Suggests) > 0 {
		fmt.Fprintf(buf, "Suggests: %s\n", strings.Join(spec.Suggests, ", "))
	}
	fmt.Fprintf(buf, "Priority: %s\n", spec.Priority.String())
	if spec.Essential {
		fmt.Fprintln(buf, "Essential: yes")
	}
	if spec.Description != "" {
		fmt.Fprintf(buf, "Description: %s\n", spec.Description)
	}

	out := buf.Bytes()
	if err := checkControlEncoding(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkControlEncoding rejects bytes a control file may not carry.
func checkControlEncoding(b []byte) error {
	for _, c := range b {
		if c == '\n' || c == '\t' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return fmt.Errorf("control file contains disallowed byte 0x%02x", c)
		}
	}
	return nil
}

// maintainer derives the Maintainer field from whichever of the
// explicit maintainer, author and email fields are available.
func maintainer(spec *types.BuildSpec) string {
	switch {
	case spec.Maintainer != "":
		return spec.Maintainer
	case spec.Author != "" && spec.Email != "":
		return fmt.Sprintf("%s <%s>", spec.Author, spec.Email)
	case spec.Author != "":
		return spec.Author
	case spec.Email != "":
		return spec.Email
	}
	return ""
}

// controlTarball writes the control member contents: the control
// file itself, the md5sums listing, and any maintainer scripts.
func controlTarball(w io.Writer, spec *types.BuildSpec, size int64, hashes []hashEntry, t time.Time) error {
	tw := tar.NewWriter(w)

	control, err := renderControl(spec, size)
	if err != nil {
		return err
	}
	if err := appendEntry(tw, "control", 0644, control, t); err != nil {
		return err
	}

	sums := &bytes.Buffer{}
	for _, h := range hashes {
		fmt.Fprintf(sums, "%s  %s\n", hex.EncodeToString(h.Sum[:]), h.Path)
	}
	if err := appendEntry(tw, "md5sums", 0644, sums.Bytes(), t); err != nil {
		return err
	}

	if err := appendScripts(tw, spec, t); err != nil {
		return err
	}
	return tw.Close()
}

// appendScripts adds the maintainer scripts.  Declared apt sources
// take precedence and synthesize their own preinst/postrm pair.
func appendScripts(tw *tar.Writer, spec *types.BuildSpec, t time.Time) error {
	if len(spec.AptSources) > 0 {
		preinst, postrm := aptSourceScripts(spec.AptSources)
		if err := appendEntry(tw, "preinst", 0755, preinst, t); err != nil {
			return err
		}
		return appendEntry(tw, "postrm", 0755, postrm, t)
	}

	for _, s := range []struct {
		name string
		body string
	}{
		{"preinst", spec.Scripts.Preinst},
		{"postinst", spec.Scripts.Postinst},
		{"prerm", spec.Scripts.Prerm},
		{"postrm", spec.Scripts.Postrm},
	} {
		if s.body == "" {
			continue
		}
		body := strings.TrimSpace(s.body)
		if err := appendEntry(tw, s.name, 0755, []byte(body), t); err != nil {
			return err
		}
	}
	return nil
}

// aptSourceScripts generates the shell that installs and removes
// keyrings and source lists for declared apt repositories.
func aptSourceScripts(sources []types.AptSource) ([]byte, []byte) {
	preinst := &bytes.Buffer{}
	postrm := &bytes.Buffer{}
	preinst.WriteString("#!/bin/sh\nset -eu\nmkdir -p /usr/share/keyrings/\n")
	postrm.WriteString("#!/bin/sh\nset -eu\n")
	for _, s := range sources {
		fmt.Fprintf(preinst, "sudo wget -q -O '/usr/share/keyrings/%s.gpg' '%s'\n", s.Name, s.GPGKeyURL)
		fmt.Fprintf(preinst, "sudo chmod a+r /usr/share/keyrings/%s.gpg\n", s.Name)
		fmt.Fprintf(preinst, "echo \"deb [signed-by=/usr/share/keyrings/%s.gpg arch=$(dpkg --print-architecture)] %s %s\" | sudo tee /etc/apt/sources.list.d/%s.list\n",
			s.Name, s.URL, s.Components, s.Name)
		fmt.Fprintf(postrm, "rm -f /usr/share/keyrings/%s.gpg /etc/apt/sources.list.d/%s.list\n", s.Name, s.Name)
	}
	return preinst.Bytes(), postrm.Bytes()
}

func appendEntry(tw *tar.Writer, name string, mode int64, body []byte, t time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Size:    int64(len(body)),
		Mode:    mode,
		ModTime: t,
		Uid:     0,
		Gid:     0,
		Format:  tar.FormatGNU,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(body)
	return err
}
