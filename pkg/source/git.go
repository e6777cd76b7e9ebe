package source

import (
	"os"
	"path"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitConfig "github.com/go-git/go-git/v5/config"
	gitPlumbing "github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/types"
)

// New creates a new instance of RepoMngr
func New(l hclog.Logger) *RepoMngr {
	x := RepoMngr{
		l: l.Named("git"),
	}
	return &x
}

// Identity reads the committer name and email from the global
// configuration.
func (r *RepoMngr) Identity() (*Identity, error) {
	cfg, err := gitConfig.LoadConfig(gitConfig.GlobalScope)
	if err != nil {
		r.l.Trace("Error loading global config")
		return nil, &types.VcsError{Op: "identity", Err: err}
	}
	return &Identity{
		Name:  cfg.User.Name,
		Email: cfg.User.Email,
	}, nil
}

// Head returns the HEAD commit hash of the repository at path.
func (r *RepoMngr) Head(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", &types.VcsError{Op: "head", Err: err}
	}
	head, err := repo.Head()
	if err != nil {
		r.l.Trace("Error getting HEAD")
		return "", &types.VcsError{Op: "head", Err: err}
	}
	return head.Hash().String(), nil
}

// Version derives a version string for the repository at path: the
// name of a tag pointing at HEAD when one exists, otherwise the
// abbreviated HEAD hash.
func (r *RepoMngr) Version(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", &types.VcsError{Op: "version", Err: err}
	}
	head, err := repo.Head()
	if err != nil {
		r.l.Trace("Error getting HEAD")
		return "", &types.VcsError{Op: "version", Err: err}
	}

	tags, err := repo.Tags()
	if err != nil {
		return "", &types.VcsError{Op: "version", Err: err}
	}
	version := ""
	tags.ForEach(func(ref *gitPlumbing.Reference) error {
		hash := ref.Hash()
		if tag, terr := repo.TagObject(hash); terr == nil {
			hash = tag.Target
		}
		if hash == head.Hash() {
			version = ref.Name().Short()
		}
		return nil
	})
	if version != "" {
		return version, nil
	}
	return head.Hash().String()[:7], nil
}

// Clone fetches a repository to the local filesystem and returns the
// destination path.  When Force is set an existing destination is
// removed first; otherwise an existing destination is reused as is.
func (r *RepoMngr) Clone(opts CloneOpts) (string, error) {
	dest := opts.Dest
	if dest == "" {
		dest = strings.TrimSuffix(path.Base(opts.Repo), ".git")
	}
	if opts.Force {
		if err := os.RemoveAll(dest); err != nil {
			return "", &types.VcsError{Op: "clone", Err: err}
		}
	} else if _, err := os.Stat(dest); err == nil {
		r.l.Debug("Clone destination exists, reusing", "dest", dest)
		return dest, nil
	}

	cloneOpts := &git.CloneOptions{
		URL:   opts.Repo,
		Depth: opts.Depth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = gitPlumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}
	r.l.Debug("Cloning repository", "url", opts.Repo, "dest", dest)
	if _, err := git.PlainClone(dest, false, cloneOpts); err != nil {
		r.l.Trace("Error running PlainClone")
		return "", &types.VcsError{Op: "clone", Err: err}
	}
	return dest, nil
}
