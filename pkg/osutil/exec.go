// Package osutil wraps the process and filesystem primitives that
// build scripts reach for: running external commands, scoped working
// directory changes, and documentation generation.
package osutil

import (
	"os"
	"os/exec"
)

// ExecOptions adjusts how Exec runs a command.  Zero values mean the
// command runs in the current directory with the parent's stdio.
type ExecOptions struct {
	Dir        string
	StdinFile  string
	StdoutFile string
}

// Exec runs the named binary with args and returns its exit status.
// A status is returned even for non-zero exits; the error return is
// reserved for failures to start the process or wire its stdio.
func Exec(bin string, args []string, opts ExecOptions) (int, error) {
	cmd := exec.Command(bin, args...)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.StdoutFile != "" {
		f, err := os.OpenFile(opts.StdoutFile, os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return -1, err
		}
		defer f.Close()
		cmd.Stdout = f
	}
	if opts.StdinFile != "" {
		f, err := os.Open(opts.StdinFile)
		if err != nil {
			return -1, err
		}
		defer f.Close()
		cmd.Stdin = f
	}

	err := cmd.Run()
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// Sh runs a script string through the system shell.
func Sh(script string) (int, error) {
	return Exec("sh", []string{"-c", script}, ExecOptions{})
}

// Which resolves a binary name against PATH.
func Which(name string) (string, error) {
	return exec.LookPath(name)
}

// InDir runs fn with the process working directory changed to dir,
// restoring the previous directory before returning.  The restore
// happens whether or not fn fails.
func InDir(dir string, fn func() error) error {
	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(dir); err != nil {
		return err
	}
	ferr := fn()
	if err := os.Chdir(prev); err != nil {
		return err
	}
	return ferr
}
