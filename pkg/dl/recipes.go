package dl

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// kubectlStableURL resolves the "stable" release token.  Overridden
// in tests.
var kubectlStableURL = "https://dl.k8s.io/release/stable.txt"

// ExecutableMode is the install mode for fetched binaries.
const ExecutableMode = 0o755

func detail(opt, deflt string) string {
	if opt != "" {
		return opt
	}
	return deflt
}

// Kubectl fetches the Kubernetes CLI.  A release of "stable" or the
// empty string resolves the current stable version first.
func Kubectl(l hclog.Logger, opts Opts) (string, error) {
	release := detail(opts.Release, "stable")
	if release == "stable" {
		r, err := fetchString(kubectlStableURL)
		if err != nil {
			return "", err
		}
		release = r
	}
	u := fmt.Sprintf("https://dl.k8s.io/release/%s/bin/linux/%s/kubectl",
		release, detail(opts.Arch, "amd64"))
	opts.Out = detail(opts.Out, "bin/kubectl")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// Jq fetches the jq JSON processor.
func Jq(l hclog.Logger, opts Opts) (string, error) {
	u := fmt.Sprintf("https://github.com/jqlang/jq/releases/download/jq-%s/jq-linux-%s",
		detail(opts.Release, "1.7.1"), detail(opts.Arch, "amd64"))
	opts.Out = detail(opts.Out, "bin/jq")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// YoutubeDL fetches the youtube-dl downloader.
func YoutubeDL(l hclog.Logger, opts Opts) (string, error) {
	u := fmt.Sprintf("https://github.com/ytdl-org/youtube-dl/releases/download/%s/youtube-dl",
		detail(opts.Release, "2021.12.17"))
	opts.Out = detail(opts.Out, "bin/youtube-dl")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// YtDlp fetches the yt-dlp downloader.
func YtDlp(l hclog.Logger, opts Opts) (string, error) {
	u := fmt.Sprintf("https://github.com/yt-dlp/yt-dlp/releases/download/%s/yt-dlp",
		detail(opts.Release, "2024.04.09"))
	opts.Out = detail(opts.Out, "bin/yt-dlp")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// Mc fetches the MinIO client.
func Mc(l hclog.Logger, opts Opts) (string, error) {
	u := fmt.Sprintf("https://dl.min.io/client/mc/release/linux-%s/mc",
		detail(opts.Arch, "amd64"))
	opts.Out = detail(opts.Out, "bin/mc")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// Tetris fetches the terminal tetris game.
func Tetris(l hclog.Logger, opts Opts) (string, error) {
	arch := detail(opts.Arch, "x86_64")
	if arch == "amd64" {
		arch = "x86_64"
	}
	u := fmt.Sprintf("https://github.com/samtay/tetris/releases/download/%s/tetris-debian-%s",
		detail(opts.Release, "0.1.4"), arch)
	opts.Out = detail(opts.Out, "bin/tetris")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// BalenaEtcher fetches the balenaEtcher AppImage.
func BalenaEtcher(l hclog.Logger, opts Opts) (string, error) {
	arch := detail(opts.Arch, "x64")
	if arch == "amd64" {
		arch = "x64"
	}
	release := detail(opts.Release, "1.18.11")
	u := fmt.Sprintf("https://github.com/balena-io/etcher/releases/download/v%s/balenaEtcher-%s-%s.AppImage",
		release, release, arch)
	opts.Out = detail(opts.Out, "bin/BalenaEtcher.AppImage")
	opts.Mode = ExecutableMode
	return Fetch(l, u, opts)
}

// Recipe names a convenience fetcher surfaced to scripts.
type Recipe func(hclog.Logger, Opts) (string, error)

// Recipes maps the script-visible recipe names onto their fetchers.
var Recipes = map[string]Recipe{
	"kubectl":       Kubectl,
	"jq":            Jq,
	"youtube_dl":    YoutubeDL,
	"yt_dlp":        YtDlp,
	"mc":            Mc,
	"tetris":        Tetris,
	"balena_etcher": BalenaEtcher,
}
