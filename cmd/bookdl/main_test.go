package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/bookdl/internal/config"
	"github.com/handiism/bookdl/internal/crawl"
)

func newCatalogServer(t *testing.T, withBooks bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if !withBooks {
			_, _ = fmt.Fprint(w, `<html><body><p>nothing yet</p></body></html>`)
			return
		}
		_, _ = fmt.Fprint(w, `<html><body>
			<div class="bookContainer"><a href="/book1">One</a></div>
			<div class="bookContainer"><a href="/book2">Two</a></div>
		</body></html>`)
	})
	mux.HandleFunc("/book1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div id="frontpage"><a href="/a.pdf">A</a></div>`)
	})
	mux.HandleFunc("/book2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div id="frontpage"><a href="/b.pdf">B</a><a href="/c.txt">C</a></div>`)
	})
	for _, name := range []string{"a.pdf", "b.pdf", "c.txt"} {
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, "content of "+name)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_DownloadsDocuments(t *testing.T) {
	srv := newCatalogServer(t, true)
	dir := t.TempDir()
	metrics := filepath.Join(t.TempDir(), "bookdl.prom")

	_, err := execute(t, srv.URL+"/", "-o", dir, "--retry-delay", "1ms", "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "content of a.pdf", string(data))
	assert.FileExists(t, filepath.Join(dir, "b.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "c.txt"))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `bookdl_downloads_total{kind="",result="succeeded"} 2`)
}

func TestRun_Progress(t *testing.T) {
	srv := newCatalogServer(t, true)

	for range 5 {
		out, err := execute(t, srv.URL+"/", "-o", t.TempDir(), "--progress", "--concurrency", "4", "--discovery-concurrency", "4")
		require.NoError(t, err)
		assert.Contains(t, out, "Downloaded: a.pdf")
		assert.Contains(t, out, "Downloaded: b.pdf")
	}
}

func TestRun_DryRun(t *testing.T) {
	srv := newCatalogServer(t, true)
	dir := t.TempDir()

	out, err := execute(t, srv.URL+"/", "-o", dir, "--dry-run")
	require.NoError(t, err)

	lines := strings.Fields(out)
	assert.Equal(t, []string{srv.URL + "/a.pdf", srv.URL + "/b.pdf"}, lines)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_FailOnEmpty(t *testing.T) {
	srv := newCatalogServer(t, false)

	_, err := execute(t, srv.URL+"/", "-o", t.TempDir())
	require.NoError(t, err)

	_, err = execute(t, srv.URL+"/", "-o", t.TempDir(), "--fail-on-empty")
	require.ErrorIs(t, err, errNothingDownloaded)
}

func TestRun_CatalogUnavailable(t *testing.T) {
	srv := newCatalogServer(t, true)

	_, err := execute(t, srv.URL+"/missing/", "-o", t.TempDir(), "--max-attempts", "1")
	require.ErrorIs(t, err, crawl.ErrCatalogUnavailable)
}

func TestRun_InvalidSettings(t *testing.T) {
	_, err := execute(t, "http://books.example/", "--match-mode", "regex")
	require.ErrorIs(t, err, config.ErrInvalidSettings)

	_, err = execute(t, "ftp://books.example/")
	require.ErrorIs(t, err, config.ErrInvalidSettings)

	_, err = execute(t, "a", "b")
	require.Error(t, err)
}
