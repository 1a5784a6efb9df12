//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ bookmarks.Fetcher = (*rod.Fetcher)(nil)

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	fetcher := rod.NewFetcher()
	t.Cleanup(func() { _ = fetcher.Close() })

	t.Run("renders client side content", func(t *testing.T) {
		t.Parallel()

		srv := serveHTML(t, `<!DOCTYPE html>
<html>
<head><title>Product page</title></head>
<body>
<div id="price">Loading price...</div>
<script>
document.getElementById('price').textContent = 'Now 24.99';
</script>
</body>
</html>`)

		resp, err := fetcher.Fetch(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Contains(t, resp.Body, "Now 24.99")
		assert.NotContains(t, resp.Body, "Loading price...")
		assert.Equal(t, "text/html", resp.ContentType)
	})

	t.Run("serializes shadow roots", func(t *testing.T) {
		t.Parallel()

		srv := serveHTML(t, `<!DOCTYPE html>
<html>
<head><title>Card</title></head>
<body>
<post-card></post-card>
<script>
class PostCard extends HTMLElement {
  constructor() {
    super();
    const shadow = this.attachShadow({mode: 'open'});
    shadow.innerHTML = '<p data-card-body="true">First</p><p data-card-body="true">Second</p>';
  }
}
customElements.define('post-card', PostCard);
</script>
</body>
</html>`)

		resp, err := fetcher.Fetch(context.Background(), srv.URL)

		require.NoError(t, err)
		// The marker appears twice inside the script; serialized shadow
		// content adds more occurrences.
		assert.Greater(t, strings.Count(resp.Body, `data-card-body="true"`), 2)
	})

	t.Run("reports final URL", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/articles/long-title", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/articles/long-title", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>article</body></html>`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		resp, err := fetcher.Fetch(context.Background(), srv.URL+"/short")

		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/articles/long-title", resp.URL)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fetcher.Fetch(ctx, "http://127.0.0.1:1")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFetcher_Fetch_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`<html><body>late</body></html>`))
	}))
	defer srv.Close()

	fetcher := rod.NewFetcher(rod.WithFetchTimeout(100 * time.Millisecond))
	defer fetcher.Close()

	_, err := fetcher.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcher_Close(t *testing.T) {
	t.Parallel()

	fetcher := rod.NewFetcher()

	require.NoError(t, fetcher.Close())
	require.NoError(t, fetcher.Close())

	_, err := fetcher.Fetch(context.Background(), "https://example.com")

	assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
	assert.Contains(t, bookmarks.ErrorMessage(err), "closed")
}
