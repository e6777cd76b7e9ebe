package deb

import (
	"archive/tar"
	"crypto/md5"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/the-maldridge/pallet/pkg/types"
)

// A hashEntry pairs an installed file's archive-relative path with
// the md5 of its content, in the order files were added.
type hashEntry struct {
	Sum  [md5.Size]byte
	Path string
}

// dataBuilder streams the installable file tree into a tar stream,
// inserting parent directory entries ahead of their first use and
// recording a content hash for every regular file.
type dataBuilder struct {
	tw     *tar.Writer
	time   time.Time
	size   int64
	dirs   map[string]bool
	hashes []hashEntry
}

func newDataBuilder(w io.Writer, t time.Time) *dataBuilder {
	return &dataBuilder{
		tw:   tar.NewWriter(w),
		time: t,
		dirs: make(map[string]bool),
	}
}

// Add places one manifest entry into the data stream.  Directory
// sources are walked recursively; symlinks are only legal inside a
// walked directory.
func (b *dataBuilder) Add(f types.File) error {
	dst := stripLeadingSlash(f.Dst)
	if f.Dir {
		return b.addDir(dst, f.Mode)
	}

	stat, err := os.Lstat(f.Src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Src, err)
	}
	switch {
	case stat.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("%s: symlinks are not supported as manifest sources", f.Src)
	case stat.IsDir():
		return b.walk(f.Src, dst)
	case stat.Mode().IsRegular():
		mode := f.Mode
		if mode == 0 {
			mode = uint32(stat.Mode().Perm())
		}
		return b.addRegular(f.Src, dst, stat.Size(), mode)
	}
	return fmt.Errorf("%s: files and directories are the only supported source types", f.Src)
}

// walk mirrors an entire source directory under dst, preserving
// on-disk modes and carrying symlinks through as tar symlinks.
func (b *dataBuilder) walk(src, dst string) error {
	return filepath.Walk(src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := joinSlash(dst, rel)
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return b.addSymlink(target, link, info.ModTime())
		case info.Mode().IsRegular():
			return b.addRegular(path, target, info.Size(), uint32(info.Mode().Perm()))
		}
		return nil
	})
}

func (b *dataBuilder) addRegular(src, dst string, size int64, mode uint32) error {
	if err := b.addParents(dst); err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", src, err)
	}
	defer f.Close()

	hdr := &tar.Header{
		Name:    dst,
		Size:    size,
		Mode:    int64(mode),
		ModTime: b.time,
		Uid:     0,
		Gid:     0,
		Format:  tar.FormatGNU,
	}
	if err := b.tw.WriteHeader(hdr); err != nil {
		return err
	}
	h := md5.New()
	if _, err := io.Copy(b.tw, io.TeeReader(f, h)); err != nil {
		return fmt.Errorf("could not copy %s into archive: %w", src, err)
	}

	var e hashEntry
	h.Sum(e.Sum[:0])
	e.Path = dst
	b.hashes = append(b.hashes, e)
	b.size += size
	return nil
}

func (b *dataBuilder) addSymlink(dst, link string, mtime time.Time) error {
	if err := b.addParents(dst); err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:     dst,
		Typeflag: tar.TypeSymlink,
		Linkname: link,
		Mode:     0777,
		ModTime:  mtime,
		Format:   tar.FormatGNU,
	}
	return b.tw.WriteHeader(hdr)
}

// addDir emits a single directory entry, once.
func (b *dataBuilder) addDir(dst string, mode uint32) error {
	if b.dirs[dst] {
		return nil
	}
	if mode == 0 {
		mode = 0755
	}
	b.dirs[dst] = true
	hdr := &tar.Header{
		Name:     dst + "/",
		Typeflag: tar.TypeDir,
		Mode:     int64(mode),
		ModTime:  b.time,
		Uid:      0,
		Gid:      0,
		Format:   tar.FormatGNU,
	}
	return b.tw.WriteHeader(hdr)
}

// addParents emits directory entries for every path component above
// dst that has not been seen yet.
func (b *dataBuilder) addParents(dst string) error {
	parts := strings.Split(dst, "/")
	if len(parts) < 2 {
		return nil
	}
	dir := ""
	for _, part := range parts[:len(parts)-1] {
		if dir == "" {
			dir = part
		} else {
			dir = dir + "/" + part
		}
		if err := b.addDir(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (b *dataBuilder) Close() error {
	return b.tw.Close()
}

// Size is the total byte count of regular files added so far, used
// for the Installed-Size control field.
func (b *dataBuilder) Size() int64 { return b.size }

// Hashes returns the recorded (md5, path) pairs in insertion order.
func (b *dataBuilder) Hashes() []hashEntry { return b.hashes }

func stripLeadingSlash(p string) string {
	return strings.TrimPrefix(p, "/")
}

// joinSlash joins using forward slashes regardless of dst being
// empty, keeping archive paths normalized.
func joinSlash(dst, rel string) string {
	rel = filepath.ToSlash(rel)
	if dst == "" {
		return rel
	}
	return dst + "/" + rel
}
