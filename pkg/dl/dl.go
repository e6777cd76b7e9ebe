// Package dl fetches binaries over HTTP for direct inclusion in a
// package, with optional checksum verification and decompression.
package dl

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/the-maldridge/pallet/pkg/types"
)

// Opts adjusts a fetch.  Release and Arch only matter to the named
// recipes; Out defaults to the final path segment of the URL.
type Opts struct {
	Release string
	Arch    string
	Out     string
	Mode    uint32

	// SHA256 is the expected hex digest of the bytes as served.
	SHA256 string

	// Compression names an encoding to strip while writing: "gzip"
	// or "xz".
	Compression string
}

// DefaultFetchMode is applied when a fetch does not name a mode.
const DefaultFetchMode = 0o664

// Fetch downloads url to the local filesystem and returns the path
// written.  No partial file remains behind on any failure.
func Fetch(l hclog.Logger, url string, opts Opts) (string, error) {
	out := opts.Out
	if out == "" {
		out = path.Base(url)
	}
	if out == "." || out == "/" || out == "" {
		return "", &types.DownloadError{URL: url, Reason: "no output file could be derived"}
	}

	mode := opts.Mode
	if mode == 0 {
		mode = DefaultFetchMode
	}

	l.Info("Fetching", "url", url, "out", out)
	resp, err := http.Get(url)
	if err != nil {
		return "", &types.DownloadError{URL: url, Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &types.DownloadError{URL: url, Reason: "bad status: " + resp.Status}
	}

	f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(mode))
	if err != nil {
		return "", &types.DownloadError{URL: url, Reason: err.Error()}
	}

	if err := writeBody(f, resp.Body, opts); err != nil {
		f.Close()
		os.Remove(out)
		return "", &types.DownloadError{URL: url, Reason: err.Error()}
	}
	if err := f.Close(); err != nil {
		os.Remove(out)
		return "", &types.DownloadError{URL: url, Reason: err.Error()}
	}
	return out, nil
}

// writeBody streams the response into f, hashing the bytes as served
// and stripping the named encoding.
func writeBody(f *os.File, body io.Reader, opts Opts) error {
	hash := sha256.New()
	src := io.Reader(io.TeeReader(body, hash))

	switch opts.Compression {
	case "":
	case "gzip":
		gz, err := gzip.NewReader(src)
		if err != nil {
			return err
		}
		defer gz.Close()
		src = gz
	case "xz":
		xr, err := xz.NewReader(src)
		if err != nil {
			return err
		}
		src = xr
	default:
		return &unknownEncodingError{opts.Compression}
	}

	if _, err := io.Copy(f, src); err != nil {
		return err
	}

	if opts.SHA256 != "" {
		got := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(got, opts.SHA256) {
			return &checksumError{want: opts.SHA256, got: got}
		}
	}
	return nil
}

type unknownEncodingError struct {
	encoding string
}

func (e *unknownEncodingError) Error() string {
	return "unknown compression encoding: " + e.encoding
}

type checksumError struct {
	want, got string
}

func (e *checksumError) Error() string {
	return "checksum mismatch: want " + e.want + " got " + e.got
}

// fetchString retrieves a small text resource and trims surrounding
// whitespace, used by recipes that resolve a release pointer first.
func fetchString(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", &types.DownloadError{URL: url, Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &types.DownloadError{URL: url, Reason: "bad status: " + resp.Status}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", &types.DownloadError{URL: url, Reason: err.Error()}
	}
	return strings.TrimSpace(string(b)), nil
}
