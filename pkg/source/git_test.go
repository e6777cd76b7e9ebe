package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-hclog"
)

// initRepo creates a repository with one commit and returns its path
// and the commit hash.
func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("test\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return dir, hash.String()
}

func TestHead(t *testing.T) {
	dir, hash := initRepo(t)
	r := New(hclog.NewNullLogger())

	got, err := r.Head(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != hash {
		t.Errorf("Head = %q, want %q", got, hash)
	}
}

func TestVersionUntagged(t *testing.T) {
	dir, hash := initRepo(t)
	r := New(hclog.NewNullLogger())

	got, err := r.Version(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != hash[:7] {
		t.Errorf("Version = %q, want %q", got, hash[:7])
	}
}

func TestVersionTagged(t *testing.T) {
	dir, hash := initRepo(t)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTag("v1.2.3", head.Hash(), nil); err != nil {
		t.Fatal(err)
	}

	r := New(hclog.NewNullLogger())
	got, err := r.Version(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3 (head %s)", got, hash)
	}
}

func TestClone(t *testing.T) {
	src, hash := initRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")
	r := New(hclog.NewNullLogger())

	got, err := r.Clone(CloneOpts{Repo: src, Dest: dest})
	if err != nil {
		t.Fatal(err)
	}
	if got != dest {
		t.Errorf("Clone returned %q, want %q", got, dest)
	}
	cloned, err := r.Head(dest)
	if err != nil {
		t.Fatal(err)
	}
	if cloned != hash {
		t.Errorf("cloned HEAD = %q, want %q", cloned, hash)
	}
}

func TestCloneReusesExisting(t *testing.T) {
	src, _ := initRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")
	r := New(hclog.NewNullLogger())

	if _, err := r.Clone(CloneOpts{Repo: src, Dest: dest}); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(dest, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Clone(CloneOpts{Repo: src, Dest: dest}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("existing destination was not reused")
	}

	if _, err := r.Clone(CloneOpts{Repo: src, Dest: dest, Force: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("forced clone did not replace the destination")
	}
}

func TestCloneDerivedDest(t *testing.T) {
	r := New(hclog.NewNullLogger())
	src, _ := initRepo(t)

	work := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(prev)

	got, err := r.Clone(CloneOpts{Repo: src})
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Base(src) {
		t.Errorf("derived dest = %q, want %q", got, filepath.Base(src))
	}
}
