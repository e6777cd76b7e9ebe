package project

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/deb"
	"github.com/the-maldridge/pallet/pkg/storage"
	"github.com/the-maldridge/pallet/pkg/types"
)

// State tracks the session lifecycle.  A session starts out Created,
// moves to Staging on the first mutation, passes through Finalizing
// inside Finish, and lands on Finished or Failed.
type State int

// The states a session moves through.
const (
	Created State = iota
	Staging
	Finalizing
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Staging:
		return "staging"
	case Finalizing:
		return "finalizing"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrAlreadyFinished is returned when Finish is called on a session
// that already finished.
var ErrAlreadyFinished = errors.New("session has already finished")

// A Project is a single build session.  It owns a staging directory
// derived from the package identity, accumulates the file manifest,
// and emits exactly one package archive.
type Project struct {
	l hclog.Logger

	spec  *types.BuildSpec
	id    string
	state State

	baseDir string
	manDir  string
	distDir string

	compression deb.Compression

	store      storage.Storage
	autoNumber bool

	// artifact holds the emitted archive path after Finish.
	artifact string
}

// An Option configures a Project at construction time.
type Option func(*Project)
