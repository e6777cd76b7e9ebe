package osutil

import (
	"os"
	"syscall"
)

// Stat carries the metadata scripts can query about a filesystem
// entry.
type Stat struct {
	Size    int64
	Mode    uint32
	IsDir   bool
	ATime   int64
	MTime   int64
	CTime   int64
	UID     uint32
	GID     uint32
	Dev     uint64
	Ino     uint64
	Nlink   uint64
	Blocks  int64
	BlkSize int64
}

// StatPath stats a path without following a trailing symlink.
func StatPath(path string) (*Stat, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	s := &Stat{
		Size:  fi.Size(),
		Mode:  uint32(fi.Mode().Perm()),
		IsDir: fi.IsDir(),
		MTime: fi.ModTime().Unix(),
	}
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		s.ATime = sys.Atim.Sec
		s.CTime = sys.Ctim.Sec
		s.UID = sys.Uid
		s.GID = sys.Gid
		s.Dev = uint64(sys.Dev)
		s.Ino = sys.Ino
		s.Nlink = uint64(sys.Nlink)
		s.Blocks = sys.Blocks
		s.BlkSize = int64(sys.Blksize)
	}
	return s, nil
}

// Exists reports whether a path names an existing filesystem entry.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
