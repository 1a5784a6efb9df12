package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/etree"
	"github.com/landitus/bookmarks/fs"
	"github.com/landitus/bookmarks/gemini"
	"github.com/landitus/bookmarks/gofeed"
	"github.com/landitus/bookmarks/goquery"
	"github.com/landitus/bookmarks/htmltomarkdown"
	bhttp "github.com/landitus/bookmarks/http"
	"github.com/landitus/bookmarks/ingest"
	"github.com/landitus/bookmarks/lingua"
	"github.com/landitus/bookmarks/readability"
	"github.com/landitus/bookmarks/redis"
	"github.com/landitus/bookmarks/rod"
	bs3 "github.com/landitus/bookmarks/s3"
	bslog "github.com/landitus/bookmarks/slog"
	"github.com/landitus/bookmarks/sqlite"
	"github.com/landitus/bookmarks/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	m := NewMain()
	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	closers []func() error
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases everything opened by Run, in reverse order.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("bookmarks"),
		kong.Description("Save links, read them later."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'bookmarks --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	cfg := &cli.Config
	deps.Config = cfg
	deps.Logger = newLogger(stderr, cfg.LogLevel, cfg.LogFormat)

	if cfg.DB == "" {
		cfg.DB = defaultDBPath()
	}
	m.DB = sqlite.NewDB(cfg.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set BOOKMARKS_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cfg.DB, err)
	}
	defer m.Close()

	deps.Items = sqlite.NewItemService(m.DB)
	deps.Topics = sqlite.NewTopicService(m.DB)
	deps.APIKeys = sqlite.NewAPIKeyService(m.DB)
	deps.FeedWriter = etree.NewFeedWriter()

	switch cmd {
	case "serve", "save", "reprocess", "import", "delete":
		if err := m.wireIngester(ctx, cmd, deps); err != nil {
			return err
		}
	}
	if cmd == "import" {
		deps.FeedReader = bslog.NewLoggingFeedReader(gofeed.NewFeedReader(gofeed.WithUserAgent(bhttp.DefaultUserAgent)), deps.Logger)
	}

	return kongCtx.Run(deps)
}

// wireIngester builds the ingest pipeline from the configuration. Only serve
// creates an in-memory queue; other commands process inline unless Redis
// carries jobs to a running server.
func (m *Main) wireIngester(ctx context.Context, cmd string, deps *Dependencies) error {
	cfg, logger := deps.Config, deps.Logger

	snapshots, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}

	g := &ingest.Ingester{
		Items:          deps.Items,
		Topics:         deps.Topics,
		Snapshots:      snapshots,
		Logger:         logger,
		ProcessTimeout: cfg.ProcessTimeout,
	}
	deps.Ingester = g

	// Deleting only touches the database and snapshots.
	if cmd == "delete" {
		return nil
	}

	fetcher := bslog.NewLoggingFetcher(bhttp.NewFetcher(bhttp.WithTimeout(cfg.FetchTimeout)), logger)
	m.closers = append(m.closers, fetcher.Close)

	g.Fetcher = fetcher
	g.Scraper = goquery.NewMetadataScraper()
	g.Converter = htmltomarkdown.NewConverter()
	g.Languages = lingua.NewDetector()
	g.RateLimiter = ingest.NewDomainLimiter(ingest.DefaultRequestsPerSecond)

	if cfg.Extractor == "trafilatura" {
		g.Extractor, g.FallbackExtractor = trafilatura.NewExtractor(), readability.NewExtractor()
	} else {
		g.Extractor, g.FallbackExtractor = readability.NewExtractor(), trafilatura.NewExtractor()
	}

	if cfg.Browser {
		browser := rod.NewFetcher(rod.WithFetchTimeout(cfg.FetchTimeout))
		m.closers = append(m.closers, browser.Close)
		g.BrowserFetcher = bslog.NewLoggingFetcher(browser, logger)
	}

	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		g.Enricher = bslog.NewLoggingEnricher(gemini.NewEnricher(client, cfg.Model), logger)

		counter, err := gemini.NewTokenCounter(cfg.Model, logger)
		if err != nil {
			logger.Warn("token counter unavailable, estimating from length", "model", cfg.Model, "err", err)
		} else {
			if model := cmp.Or(cfg.Model, gemini.DefaultModel); counter.Model() != model {
				logger.Info("token counts use a fallback tokenizer", "model", model, "tokenizer", counter.Model())
			}
			g.TokenCounter = counter
		}
	} else {
		logger.Debug("GEMINI_API_KEY not set, enrichment disabled")
	}

	switch {
	case cfg.RedisURL != "":
		q, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		deps.Queue = bslog.NewLoggingQueue(q, logger)
	case cmd == "serve":
		deps.Queue = bslog.NewLoggingQueue(ingest.NewMemoryQueue(ingest.DefaultQueueSize), logger)
	}
	if deps.Queue != nil {
		m.closers = append(m.closers, deps.Queue.Close)
		g.Queue = deps.Queue
	}
	return nil
}

// openSnapshotStore returns the S3 store when a bucket is configured, the
// file system store when a directory is, and nil otherwise.
func openSnapshotStore(ctx context.Context, cfg *Config) (bookmarks.SnapshotStore, error) {
	switch {
	case cfg.S3Bucket != "":
		store, err := bs3.Open(ctx, bs3.Config{
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
			Region: cfg.AWSRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open S3 snapshot store: %w", err)
		}
		return store, nil
	case cfg.SnapshotDir != "":
		return fs.NewSnapshotStore(cfg.SnapshotDir), nil
	}
	return nil, nil
}

// newLogger returns a logger writing to w. Unknown levels fall back to info.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bookmarks.db"
	}
	dir := filepath.Join(home, ".bookmarks")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "bookmarks.db")
}
