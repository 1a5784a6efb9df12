//go:build integration && !windows

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/landitus/bookmarks/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Close_KillsLauncherProcess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer srv.Close()

	fetcher := rod.NewFetcher()
	_, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	pid := fetcher.LauncherPID()
	require.NotZero(t, pid)
	// Signal 0 checks that the process exists without affecting it.
	require.NoError(t, syscall.Kill(pid, syscall.Signal(0)))

	require.NoError(t, fetcher.Close())
	time.Sleep(100 * time.Millisecond)

	assert.Error(t, syscall.Kill(pid, syscall.Signal(0)))
}
