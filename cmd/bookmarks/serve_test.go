package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/landitus/bookmarks"
	main "github.com/landitus/bookmarks/cmd/bookmarks"
	"github.com/landitus/bookmarks/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startServe runs the serve command with an in-memory queue and returns the
// server's base URL. The command is stopped when the test ends.
func startServe(t *testing.T, deps *main.Dependencies) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	stdout := &syncBuffer{}
	deps.Ctx = ctx
	deps.Stdout = stdout
	deps.Logger = slog.New(slog.DiscardHandler)

	cmd := &main.ServeCmd{Addr: "127.0.0.1:0", Workers: 2, ReprocessWait: 5 * time.Second}
	stopped := make(chan error, 1)
	go func() { stopped <- cmd.Run(deps) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-stopped)
	})

	var baseURL string
	require.Eventually(t, func() bool {
		line, ok := strings.CutPrefix(stdout.String(), "Listening on ")
		baseURL = strings.TrimSpace(line)
		return ok && baseURL != ""
	}, 5*time.Second, 10*time.Millisecond)
	return baseURL
}

// withQueue wires an in-memory job queue the way serve does.
func withQueue(deps *main.Dependencies) {
	queue := ingest.NewMemoryQueue(8)
	deps.Queue = queue
	deps.Ingester.Queue = queue
	deps.Ingester.PollInterval = 5 * time.Millisecond
}

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("resumes items left pending", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		withQueue(deps)
		// The save job is dropped with its queue, as on a restart.
		item := saveItem(t, deps, "u1", "https://example.com/go")
		require.Equal(t, bookmarks.ProcessingPending, item.ProcessingStatus)
		withQueue(deps)

		startServe(t, deps)

		require.Eventually(t, func() bool {
			got, err := deps.Items.FindItemByID(context.Background(), item.ID)
			return err == nil && got.ProcessingStatus == bookmarks.ProcessingCompleted
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("reprocess waits for a worker", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t)
		token, err := deps.APIKeys.CreateAPIKey(context.Background(), &bookmarks.APIKey{UserID: "u1", Name: "test"})
		require.NoError(t, err)
		withQueue(deps)
		baseURL := startServe(t, deps)
		item := saveItem(t, deps, "u1", "https://example.com/go")

		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/items/"+item.ID+"/reprocess", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var got bookmarks.Item
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, bookmarks.ProcessingCompleted, got.ProcessingStatus)
		assert.Equal(t, "Go Concurrency", got.Title)
	})
}
