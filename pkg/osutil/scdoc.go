package osutil

import (
	"bytes"
	"io"
	"os"
	"os/exec"

	"github.com/klauspost/compress/gzip"
)

// SCDocOpts names the input document, the output path, and whether
// the rendered page should be gzip compressed.
type SCDocOpts struct {
	Input    string
	Output   string
	Compress bool
}

// SCDoc renders a man page by piping the input document through the
// scdoc binary.
func SCDoc(opts SCDocOpts) error {
	in, err := os.Open(opts.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	cmd := exec.Command("scdoc")
	cmd.Stdin = in
	buf := new(bytes.Buffer)
	cmd.Stdout = buf
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}

	out, err := os.OpenFile(opts.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	if opts.Compress {
		gz := gzip.NewWriter(out)
		if _, err := io.Copy(gz, buf); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}
	_, err = io.Copy(out, buf)
	return err
}
