package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/ingest"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *Config

	Items    bookmarks.ItemService
	Topics   bookmarks.TopicService
	APIKeys  bookmarks.APIKeyService
	Ingester *ingest.Ingester

	// Queue is set when jobs are handed to background workers.
	Queue bookmarks.JobQueue

	FeedReader bookmarks.FeedReader
	FeedWriter bookmarks.FeedWriter
}

// Config holds settings shared by all commands.
type Config struct {
	DB        string `name:"db" env:"BOOKMARKS_DB" help:"SQLite database path (default ~/.bookmarks/bookmarks.db)"`
	LogLevel  string `name:"log-level" env:"BOOKMARKS_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" env:"BOOKMARKS_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format"`

	GeminiAPIKey string `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key; enables summaries and topics"`
	Model        string `name:"model" env:"BOOKMARKS_MODEL" default:"gemini-2.5-flash" help:"Gemini model"`

	Extractor      string        `name:"extractor" env:"BOOKMARKS_EXTRACTOR" default:"readability" enum:"readability,trafilatura" help:"Primary content extractor"`
	Browser        bool          `name:"browser" env:"BOOKMARKS_BROWSER" help:"Render JavaScript-heavy pages with headless Chrome"`
	FetchTimeout   time.Duration `name:"fetch-timeout" env:"BOOKMARKS_FETCH_TIMEOUT" default:"15s" help:"HTTP fetch timeout"`
	ProcessTimeout time.Duration `name:"process-timeout" env:"BOOKMARKS_PROCESS_TIMEOUT" default:"60s" help:"Timeout for processing one item"`

	RedisURL string `name:"redis-url" env:"REDIS_URL" help:"Redis URL for the job queue"`

	SnapshotDir string `name:"snapshot-dir" env:"BOOKMARKS_SNAPSHOT_DIR" help:"Directory for page snapshots"`
	S3Bucket    string `name:"s3-bucket" env:"BOOKMARKS_S3_BUCKET" help:"S3 bucket for page snapshots"`
	S3Prefix    string `name:"s3-prefix" env:"BOOKMARKS_S3_PREFIX" help:"Key prefix inside the S3 bucket"`
	AWSRegion   string `name:"aws-region" env:"AWS_REGION" help:"AWS region of the S3 bucket"`
}

// UserFlag selects the user whose items a command works on.
type UserFlag struct {
	User string `name:"user" short:"u" env:"BOOKMARKS_USER" required:"" help:"User ID"`
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config `embed:""`

	Serve     ServeCmd     `cmd:"" help:"Run the HTTP API and background workers"`
	Save      SaveCmd      `cmd:"" help:"Save a URL"`
	List      ListCmd      `cmd:"" help:"List saved items"`
	Show      ShowCmd      `cmd:"" help:"Show an item"`
	Move      MoveCmd      `cmd:"" help:"Move an item to another status"`
	Favorite  FavoriteCmd  `cmd:"" help:"Mark or unmark an item as favorite"`
	Delete    DeleteCmd    `cmd:"" help:"Delete an item"`
	Reprocess ReprocessCmd `cmd:"" help:"Fetch and enrich an item again"`
	Import    ImportCmd    `cmd:"" help:"Import URLs from a bookmarks file, text file or feed"`
	Export    ExportCmd    `cmd:"" help:"Export items as RSS"`
	Topics    TopicsCmd    `cmd:"" help:"List topics"`
	Key       KeyCmd       `cmd:"" help:"Manage API keys"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr          string        `name:"addr" env:"BOOKMARKS_ADDR" default:":8080" help:"Listen address"`
	Workers       int           `name:"workers" env:"BOOKMARKS_WORKERS" default:"2" help:"Background processing workers"`
	ReprocessWait time.Duration `name:"reprocess-wait" env:"BOOKMARKS_REPROCESS_WAIT" default:"10s" help:"How long reprocess requests wait before answering 202"`
}

// SaveCmd is the "save" subcommand.
type SaveCmd struct {
	UserFlag
	URL    string `arg:"" help:"URL to save"`
	Status string `short:"s" default:"inbox" help:"Status: inbox, queue, library or archive"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	UserFlag
	Status   string `short:"s" help:"Only items with this status"`
	Type     string `short:"t" help:"Only items of this content type"`
	Topic    string `help:"Only items with this topic"`
	Query    string `short:"q" help:"Search title, description and URL"`
	Favorite bool   `help:"Only favorites"`
	Limit    int    `short:"n" default:"50" help:"Maximum number of items"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	UserFlag
	ID string `arg:"" help:"Item ID"`
}

// MoveCmd is the "move" subcommand.
type MoveCmd struct {
	UserFlag
	ID     string `arg:"" help:"Item ID"`
	Status string `arg:"" help:"Target status: inbox, queue, library or archive"`
}

// FavoriteCmd is the "favorite" subcommand.
type FavoriteCmd struct {
	UserFlag
	ID  string `arg:"" help:"Item ID"`
	Off bool   `help:"Remove the favorite mark"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	UserFlag
	ID    string `arg:"" help:"Item ID"`
	Force bool   `help:"Confirm deletion"`
}

// ReprocessCmd is the "reprocess" subcommand.
type ReprocessCmd struct {
	UserFlag
	ID   string        `arg:"" help:"Item ID"`
	Wait time.Duration `default:"2m" help:"How long to wait for processing to finish; 0 waits without limit"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	UserFlag
	Source      string `arg:"" help:"Netscape bookmarks file, text file with one URL per line, or feed URL"`
	Status      string `short:"s" default:"inbox" help:"Status for imported items"`
	Concurrency int    `short:"c" default:"4" help:"Parallel saves"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	UserFlag
	Status string `short:"s" default:"queue" help:"Status to export"`
	Output string `short:"o" help:"Output file (default stdout)"`
}

// TopicsCmd is the "topics" subcommand.
type TopicsCmd struct {
	UserFlag
}

// KeyCmd groups the API key subcommands.
type KeyCmd struct {
	Create KeyCreateCmd `cmd:"" help:"Create an API key"`
	List   KeyListCmd   `cmd:"" help:"List API keys"`
	Revoke KeyRevokeCmd `cmd:"" help:"Revoke an API key"`
}

// KeyCreateCmd is the "key create" subcommand.
type KeyCreateCmd struct {
	UserFlag
	Name string `required:"" help:"Key name, e.g. the device it is used on"`
}

// KeyListCmd is the "key list" subcommand.
type KeyListCmd struct {
	UserFlag
}

// KeyRevokeCmd is the "key revoke" subcommand.
type KeyRevokeCmd struct {
	UserFlag
	ID string `arg:"" help:"Key ID"`
}
