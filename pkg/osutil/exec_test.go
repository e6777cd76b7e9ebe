package osutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecStatus(t *testing.T) {
	tests := []struct {
		name string
		bin  string
		args []string
		want int
	}{
		{"success", "true", nil, 0},
		{"failure", "false", nil, 1},
		{"sh exit", "sh", []string{"-c", "exit 42"}, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Exec(tt.bin, tt.args, ExecOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Exec(%s) = %d, want %d", tt.bin, got, tt.want)
			}
		})
	}
}

func TestExecMissingBinary(t *testing.T) {
	if _, err := Exec("pallet-no-such-binary", nil, ExecOptions{}); err == nil {
		t.Error("expected start failure for missing binary")
	}
}

func TestExecStdoutRedirect(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	status, err := Exec("sh", []string{"-c", "echo redirected"}, ExecOptions{StdoutFile: out})
	if err != nil || status != 0 {
		t.Fatalf("Exec = %d, %v", status, err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(b)) != "redirected" {
		t.Errorf("redirected output = %q", b)
	}
}

func TestExecStdinRedirect(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte("pass through\n"), 0644); err != nil {
		t.Fatal(err)
	}
	status, err := Exec("cat", nil, ExecOptions{StdinFile: in, StdoutFile: out})
	if err != nil || status != 0 {
		t.Fatalf("Exec = %d, %v", status, err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "pass through\n" {
		t.Errorf("piped output = %q", b)
	}
}

func TestExecDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "pwd.txt")
	status, err := Exec("sh", []string{"-c", "pwd"}, ExecOptions{Dir: dir, StdoutFile: out})
	if err != nil || status != 0 {
		t.Fatalf("Exec = %d, %v", status, err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(b)))
	if err != nil {
		t.Fatal(err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("command ran in %q, want %q", got, want)
	}
}

func TestInDir(t *testing.T) {
	before, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	var seen string
	if err := InDir(dir, func() error {
		seen, _ = os.Getwd()
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	wantSeen, _ := filepath.EvalSymlinks(dir)
	gotSeen, _ := filepath.EvalSymlinks(seen)
	if gotSeen != wantSeen {
		t.Errorf("function ran in %q, want %q", gotSeen, wantSeen)
	}
	after, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("working directory not restored: %q", after)
	}
}

func TestInDirRestoresOnError(t *testing.T) {
	before, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")

	err = InDir(t.TempDir(), func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("InDir error = %v, want %v", err, boom)
	}
	after, _ := os.Getwd()
	if after != before {
		t.Errorf("working directory not restored after error: %q", after)
	}
}

func TestWhich(t *testing.T) {
	if _, err := Which("sh"); err != nil {
		t.Errorf("Which(sh) failed: %v", err)
	}
	if _, err := Which("pallet-no-such-binary"); err == nil {
		t.Error("Which found a binary that does not exist")
	}
}

func TestStatPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	if err := os.WriteFile(p, []byte("abc"), 0640); err != nil {
		t.Fatal(err)
	}

	s, err := StatPath(p)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size != 3 {
		t.Errorf("Size = %d, want 3", s.Size)
	}
	if s.Mode != 0640 {
		t.Errorf("Mode = %o, want 0640", s.Mode)
	}
	if s.IsDir {
		t.Error("regular file reported as directory")
	}
	if s.Nlink == 0 {
		t.Error("Nlink not populated")
	}

	if !Exists(p) {
		t.Error("Exists = false for present file")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists = true for missing file")
	}
}
