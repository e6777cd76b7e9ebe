package dl

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/gzip"
)

func serve(t *testing.T, body []byte, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := serve(t, []byte("payload"), http.StatusOK)
	out := filepath.Join(t.TempDir(), "artifact")

	got, err := Fetch(hclog.NewNullLogger(), srv.URL+"/artifact", Opts{Out: out})
	if err != nil {
		t.Fatal(err)
	}
	if got != out {
		t.Errorf("Fetch returned %q, want %q", got, out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Errorf("fetched content = %q", b)
	}
}

func TestFetchMode(t *testing.T) {
	srv := serve(t, []byte("bin"), http.StatusOK)
	out := filepath.Join(t.TempDir(), "tool")

	if _, err := Fetch(hclog.NewNullLogger(), srv.URL, Opts{Out: out, Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0755 {
		t.Errorf("mode = %o, want 0755", fi.Mode().Perm())
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := serve(t, nil, http.StatusNotFound)
	out := filepath.Join(t.TempDir(), "missing")

	if _, err := Fetch(hclog.NewNullLogger(), srv.URL, Opts{Out: out}); err == nil {
		t.Fatal("expected fetch failure")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output file exists after failed fetch")
	}
}

func TestFetchChecksum(t *testing.T) {
	body := []byte("verified payload")
	sum := sha256.Sum256(body)
	srv := serve(t, body, http.StatusOK)
	dir := t.TempDir()

	out := filepath.Join(dir, "good")
	if _, err := Fetch(hclog.NewNullLogger(), srv.URL, Opts{
		Out:    out,
		SHA256: hex.EncodeToString(sum[:]),
	}); err != nil {
		t.Fatalf("fetch with valid checksum failed: %v", err)
	}

	bad := filepath.Join(dir, "bad")
	_, err := Fetch(hclog.NewNullLogger(), srv.URL, Opts{
		Out:    bad,
		SHA256: "deadbeef",
	})
	if err == nil {
		t.Fatal("expected checksum mismatch")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("output file left behind after checksum mismatch")
	}
}

func TestFetchGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("inflate me"))
	gz.Close()
	srv := serve(t, buf.Bytes(), http.StatusOK)
	out := filepath.Join(t.TempDir(), "plain")

	if _, err := Fetch(hclog.NewNullLogger(), srv.URL, Opts{Out: out, Compression: "gzip"}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "inflate me" {
		t.Errorf("decompressed content = %q", b)
	}
}

func TestFetchUnknownEncoding(t *testing.T) {
	srv := serve(t, []byte("x"), http.StatusOK)
	out := filepath.Join(t.TempDir(), "x")

	if _, err := Fetch(hclog.NewNullLogger(), srv.URL, Opts{Out: out, Compression: "zstd"}); err == nil {
		t.Fatal("expected unknown encoding error")
	}
}

func TestFetchDefaultOut(t *testing.T) {
	srv := serve(t, []byte("named"), http.StatusOK)

	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(prev)

	got, err := Fetch(hclog.NewNullLogger(), srv.URL+"/release/tool-1.2.3", Opts{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "tool-1.2.3" {
		t.Errorf("derived out = %q, want tool-1.2.3", got)
	}
}

func TestKubectlStableLookup(t *testing.T) {
	stable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("v1.30.0\n"))
	}))
	defer stable.Close()

	orig := kubectlStableURL
	kubectlStableURL = stable.URL
	defer func() { kubectlStableURL = orig }()

	got, err := fetchString(kubectlStableURL)
	if err != nil {
		t.Fatal(err)
	}
	if got != "v1.30.0" {
		t.Errorf("resolved release = %q, want v1.30.0", got)
	}
}

func TestRecipesRegistered(t *testing.T) {
	for _, name := range []string{"kubectl", "jq", "youtube_dl", "yt_dlp", "mc", "tetris", "balena_etcher"} {
		if _, ok := Recipes[name]; !ok {
			t.Errorf("recipe %q not registered", name)
		}
	}
}
