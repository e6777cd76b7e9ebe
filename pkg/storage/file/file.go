// Package file provides the default store backend.  Each key becomes
// a single file under the store root, written with a temp and rename
// pair so that a partially written value is never observable.
package file

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/storage"
)

type fileStore struct {
	root string

	l hclog.Logger
}

func init() {
	storage.RegisterCallback(newFactory)
}

func newFactory() {
	storage.RegisterFactory("file", newFileStore)
}

func newFileStore(l hclog.Logger) (storage.Storage, error) {
	p := os.Getenv("PALLET_FILE_STORE_PATH")
	if p == "" {
		p = filepath.Join(".pallet", "store")
	}
	return New(l, p)
}

// New opens a store rooted at the given directory, creating it if
// needed.
func New(l hclog.Logger, root string) (storage.Storage, error) {
	x := new(fileStore)
	x.l = l.Named("file")

	if err := os.MkdirAll(root, 0755); err != nil {
		x.l.Error("Error creating store root", "path", root, "error", err)
		return nil, err
	}
	x.root = root

	return x, nil
}

// path maps an arbitrary key onto a filename that is safe on any
// filesystem.
func (f *fileStore) path(k []byte) string {
	return filepath.Join(f.root, hex.EncodeToString(k))
}

func (f *fileStore) Get(k []byte) ([]byte, error) {
	v, err := os.ReadFile(f.path(k))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return v, err
}

func (f *fileStore) Put(k, v []byte) error {
	tmp, err := os.CreateTemp(f.root, ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(k))
}

func (f *fileStore) Del(k []byte) error {
	err := os.Remove(f.path(k))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *fileStore) Close() error {
	return nil
}
