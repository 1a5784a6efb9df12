// Package gin serves the items HTTP API used by the browser extension and
// other clients.
package gin

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/ingest"
)

// Defaults for Server settings left at their zero value.
const (
	DefaultReprocessWait = 10 * time.Second
	DefaultShutdownGrace = 10 * time.Second
)

// Ingester saves, deletes and reprocesses items on behalf of a user.
type Ingester interface {
	Save(ctx context.Context, userID, rawURL string, opts ingest.SaveOptions) (*bookmarks.Item, bool, error)
	Delete(ctx context.Context, userID, itemID string) error
	Reprocess(ctx context.Context, userID, itemID string, wait time.Duration) (*bookmarks.Item, bool, error)
}

var _ Ingester = (*ingest.Ingester)(nil)

// Server is the HTTP server. Services must be set before Open is called.
type Server struct {
	ln     net.Listener
	server *http.Server
	router *gin.Engine

	// Addr is the TCP address to listen on, e.g. ":8080".
	Addr string

	Items    bookmarks.ItemService
	Topics   bookmarks.TopicService
	APIKeys  bookmarks.APIKeyService
	Ingester Ingester
	Feeds    bookmarks.FeedWriter

	Logger *slog.Logger

	// ReprocessWait bounds how long a reprocess request waits for the
	// result before answering 202.
	ReprocessWait time.Duration
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// NewServer returns a server with all routes registered.
func NewServer() *Server {
	s := &Server{
		server: &http.Server{ReadHeaderTimeout: 10 * time.Second},
		router: gin.New(),
	}
	s.server.Handler = s.router

	s.router.Use(gin.Recovery(), s.logRequests(), cors())
	s.router.GET("/healthz", handleHealth)

	api := s.router.Group("/api", s.authenticate())
	s.registerItemRoutes(api)
	s.registerTopicRoutes(api)
	s.registerFeedRoutes(api)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Open starts listening on Addr and serves requests in the background.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			s.logger().Error("http server stopped", "err", err)
		}
	}()
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownGrace)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the port the server is listening on, or 0 if not open.
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the local base URL of the server, or "" if not open.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", s.Port())
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// logRequests logs one line per request.
func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger().Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// cors allows any origin to call the API, which the browser extension needs.
// Preflight requests are answered directly.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Server) reprocessWait() time.Duration {
	if s.ReprocessWait <= 0 {
		return DefaultReprocessWait
	}
	return s.ReprocessWait
}
