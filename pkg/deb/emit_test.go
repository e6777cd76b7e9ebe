package deb

import (
	"archive/tar"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/gzip"
	"github.com/linuxerwang/ar"

	"github.com/the-maldridge/pallet/pkg/types"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

// readMembers returns the archive member names in order, plus the
// raw bytes of each member.
func readMembers(t *testing.T, path string) ([]string, map[string][]byte) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	names := []string{}
	bodies := make(map[string][]byte)
	rdr := ar.NewReader(f)
	for {
		hdr, err := rdr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		name := strings.TrimRight(hdr.Name, "/ ")
		body, err := io.ReadAll(rdr)
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
		bodies[name] = body
	}
	return names, bodies
}

func readTarGz(t *testing.T, body []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()

	out := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		out[hdr.Name] = b
	}
	return out
}

func TestEmitEndToEnd(t *testing.T) {
	src := t.TempDir()
	dist := t.TempDir()
	readme := writeFixture(t, src, "README.md", "hello pallet\n")

	spec := &types.BuildSpec{
		Package: "demo",
		Version: "1.0.0",
		Arch:    types.ArchAny,
		Files: []types.File{
			{Src: readme, Dst: "/usr/share/demo/README.md", Mode: 0644},
		},
	}

	path, err := Emit(hclog.NewNullLogger(), spec, EmitOptions{Dest: dist})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if filepath.Base(path) != "demo-v1.0.0_any.deb" {
		t.Errorf("unexpected archive name %q", filepath.Base(path))
	}

	names, bodies := readMembers(t, path)
	want := []string{"debian-binary", "control.tar.gz", "data.tar.gz"}
	if len(names) != 3 {
		t.Fatalf("archive has %d members, want 3: %v", len(names), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("member %d = %q, want %q", i, names[i], n)
		}
	}
	if string(bodies["debian-binary"]) != "2.0\n" {
		t.Errorf("format marker = %q", bodies["debian-binary"])
	}

	ctrl := readTarGz(t, bodies["control.tar.gz"])
	control := string(ctrl["control"])
	for _, line := range []string{"Package: demo\n", "Version: 1.0.0\n", "Architecture: any\n"} {
		if !strings.Contains(control, line) {
			t.Errorf("control file missing %q:\n%s", line, control)
		}
	}

	sum := md5.Sum([]byte("hello pallet\n"))
	wantSums := hex.EncodeToString(sum[:]) + "  usr/share/demo/README.md\n"
	if got := string(ctrl["md5sums"]); got != wantSums {
		t.Errorf("md5sums = %q, want %q", got, wantSums)
	}

	data := readTarGz(t, bodies["data.tar.gz"])
	if got := string(data["usr/share/demo/README.md"]); got != "hello pallet\n" {
		t.Errorf("installed file content = %q", got)
	}
	for _, dir := range []string{"usr/", "usr/share/", "usr/share/demo/"} {
		if _, ok := data[dir]; !ok {
			t.Errorf("data member missing directory entry %q", dir)
		}
	}
}

func TestEmitManifestOrder(t *testing.T) {
	src := t.TempDir()
	dist := t.TempDir()

	spec := &types.BuildSpec{
		Package: "ordered",
		Version: "0.1.0",
		Arch:    types.ArchAll,
	}
	// Deliberately not sorted by destination.
	for i, name := range []string{"zz", "aa", "mm"} {
		p := writeFixture(t, src, name, fmt.Sprintf("content-%d\n", i))
		spec.Files = append(spec.Files, types.File{Src: p, Dst: "/opt/ordered/" + name, Mode: 0644})
	}

	path, err := Emit(hclog.NewNullLogger(), spec, EmitOptions{Dest: dist})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	_, bodies := readMembers(t, path)
	ctrl := readTarGz(t, bodies["control.tar.gz"])
	lines := strings.Split(strings.TrimRight(string(ctrl["md5sums"]), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("md5sums has %d lines, want 3", len(lines))
	}
	for i, name := range []string{"zz", "aa", "mm"} {
		wantSuffix := "  opt/ordered/" + name
		if !strings.HasSuffix(lines[i], wantSuffix) {
			t.Errorf("md5sums line %d = %q, want suffix %q", i, lines[i], wantSuffix)
		}
	}
}

func TestEmitAtomicity(t *testing.T) {
	dist := t.TempDir()
	spec := &types.BuildSpec{
		Package: "broken",
		Version: "1.0.0",
		Arch:    types.ArchAll,
		Files: []types.File{
			{Src: filepath.Join(dist, "does-not-exist"), Dst: "/usr/share/b", Mode: 0644},
		},
	}

	_, err := Emit(hclog.NewNullLogger(), spec, EmitOptions{Dest: dist})
	if err == nil {
		t.Fatal("expected emission failure")
	}
	var ee *types.EmissionError
	if !errors.As(err, &ee) {
		t.Fatalf("error type %T, want *types.EmissionError", err)
	}

	entries, err := os.ReadDir(dist)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("destination dir not clean after failure: %s", e.Name())
	}
}

func TestEmitRejectsInvalidEnums(t *testing.T) {
	dist := t.TempDir()
	tests := []struct {
		name string
		spec types.BuildSpec
	}{
		{"invalid arch", types.BuildSpec{Package: "x", Version: "1.0", Arch: types.ArchInvalid}},
		{"invalid priority", types.BuildSpec{Package: "x", Version: "1.0", Priority: types.PriorityInvalid}},
		{"relative dst", types.BuildSpec{Package: "x", Version: "1.0", Files: []types.File{{Src: "a", Dst: "usr/a"}}}},
		{"duplicate dst", types.BuildSpec{Package: "x", Version: "1.0", Files: []types.File{{Src: "a", Dst: "/a"}, {Src: "b", Dst: "/a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Emit(hclog.NewNullLogger(), &tt.spec, EmitOptions{Dest: dist}); err == nil {
				t.Error("expected emission to fail")
			}
		})
	}
}

func TestEmitMaintainerScripts(t *testing.T) {
	src := t.TempDir()
	dist := t.TempDir()
	p := writeFixture(t, src, "bin", "#!/bin/sh\n")

	spec := &types.BuildSpec{
		Package: "scripted",
		Version: "1.0.0",
		Arch:    types.ArchAll,
		Files:   []types.File{{Src: p, Dst: "/usr/bin/scripted", Mode: 0755}},
		Scripts: types.MaintainerScripts{
			Postinst: "#!/bin/sh\necho done\n",
			Prerm:    "#!/bin/sh\necho bye\n",
		},
	}

	path, err := Emit(hclog.NewNullLogger(), spec, EmitOptions{Dest: dist})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	_, bodies := readMembers(t, path)
	ctrl := readTarGz(t, bodies["control.tar.gz"])
	if _, ok := ctrl["postinst"]; !ok {
		t.Error("control member missing postinst")
	}
	if _, ok := ctrl["prerm"]; !ok {
		t.Error("control member missing prerm")
	}
	if _, ok := ctrl["preinst"]; ok {
		t.Error("unexpected preinst in control member")
	}
}

func TestExtractDataRoundTrip(t *testing.T) {
	src := t.TempDir()
	dist := t.TempDir()
	out := t.TempDir()
	p := writeFixture(t, src, "data.txt", "round trip\n")

	spec := &types.BuildSpec{
		Package: "merge",
		Version: "2.0.0",
		Arch:    types.ArchAll,
		Files:   []types.File{{Src: p, Dst: "/usr/share/merge/data.txt", Mode: 0644}},
	}
	path, err := Emit(hclog.NewNullLogger(), spec, EmitOptions{Dest: dist})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	if err := ExtractData(path, out); err != nil {
		t.Fatalf("ExtractData failed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(out, "usr", "share", "merge", "data.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "round trip\n" {
		t.Errorf("extracted content = %q", got)
	}
}

func TestExtractDataRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	junk := writeFixture(t, dir, "junk.deb", "this is not an archive")

	err := ExtractData(junk, dir)
	var ife *types.IncompatibleFormatError
	if !errors.As(err, &ife) {
		t.Fatalf("error = %v, want *types.IncompatibleFormatError", err)
	}
}

func TestRenderControlEncoding(t *testing.T) {
	spec := &types.BuildSpec{
		Package:     "enc",
		Version:     "1.0",
		Arch:        types.ArchAll,
		Description: "contains a \x00 byte",
	}
	if _, err := renderControl(spec, 0); err == nil {
		t.Error("expected encoding rejection")
	}
}
