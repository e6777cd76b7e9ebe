package source

import (
	"github.com/hashicorp/go-hclog"
)

// A RepoMngr answers version control queries for build scripts:
// committer identity, version derivation, and cloning.
type RepoMngr struct {
	l hclog.Logger
}

// CloneOpts adjusts a Clone.  Dest defaults to the final path
// segment of the repository URL minus any .git suffix.
type CloneOpts struct {
	Repo   string
	Dest   string
	Branch string
	Depth  int
	Force  bool
}

// Identity is the committer identity from the global VCS
// configuration.
type Identity struct {
	Name  string
	Email string
}
