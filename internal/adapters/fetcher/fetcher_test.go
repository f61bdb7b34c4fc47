package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bookjiradech/CARCOM/pkg/config"
	"github.com/Bookjiradech/CARCOM/pkg/retry"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(&config.ScraperConfig{UserAgent: "carcom-test"}, server.Client())
	html, err := f.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Contains(t, html, "ok")
	assert.Equal(t, "carcom-test", gotUA)
	assert.NoError(t, f.Close())
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("third time"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(&config.ScraperConfig{}, server.Client()).WithRetry(fastRetry())
	html, err := f.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "third time", html)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPFetcher_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewHTTPFetcher(&config.ScraperConfig{}, server.Client()).WithRetry(fastRetry())
	_, err := f.Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPFetcher_DumpsWhenEnabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>dump me</p>"))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := NewHTTPFetcher(&config.ScraperConfig{DebugDump: true, DumpDir: dir}, server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/buy-car/x")
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	body, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "<p>dump me</p>", string(body))
}

func TestDumper_FileName(t *testing.T) {
	d := NewDumper("")
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	name := d.fileName("https://rod.kaidee.com/product-1?x=ก")
	assert.Equal(t, "20260102T030405.000_https_rod.kaidee.com_product-1_x_.html", name)
	assert.Equal(t, "dumps", d.dir)
}
