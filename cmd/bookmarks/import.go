package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/goquery"
	"github.com/landitus/bookmarks/ingest"
)

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	status, err := bookmarks.ParseStatus(c.Status)
	if err != nil {
		return fail(deps, err)
	}

	urls, err := c.readSource(deps)
	if err != nil {
		return fail(deps, err)
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stdout, "No URLs found.")
		return nil
	}
	fmt.Fprintf(deps.Stdout, "  Found %d URLs\n", len(urls))

	progress := func(event ingest.ProgressEvent) {
		switch event.Type {
		case ingest.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %s\n", event.URL, bookmarks.ErrorMessage(event.Error))
		case ingest.ProgressSkipped:
			fmt.Fprintf(deps.Stderr, "  skip %s\n", event.URL)
		}
	}

	result, err := deps.Ingester.Import(deps.Ctx, c.User, urls, ingest.ImportOptions{
		Status:      status,
		Concurrency: c.Concurrency,
		Progress:    progress,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error importing: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "  Saved %d, already saved %d, skipped %d, failed %d\n",
		result.Saved, result.Existing, result.Skipped, result.Failed)
	return nil
}

// readSource returns the URLs named by the import source: the entries of a
// feed for http(s) URLs, otherwise the links of a Netscape bookmarks file or
// the lines of a plain text file.
func (c *ImportCmd) readSource(deps *Dependencies) ([]string, error) {
	if isFeedURL(c.Source) {
		entries, err := deps.FeedReader.ReadFeed(deps.Ctx, c.Source)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(entries))
		for _, e := range entries {
			urls = append(urls, e.URL)
		}
		return urls, nil
	}

	data, err := os.ReadFile(c.Source)
	if os.IsNotExist(err) {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "file %q not found", c.Source)
	} else if err != nil {
		return nil, err
	}

	if isBookmarkFile(data) {
		return goquery.ParseBookmarkFile(bytes.NewReader(data))
	}
	return parseURLList(data)
}

func isFeedURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// isBookmarkFile reports whether data looks like a browser bookmarks export.
func isBookmarkFile(data []byte) bool {
	head := bytes.ToLower(data[:min(len(data), 1024)])
	return bytes.Contains(head, []byte("netscape-bookmark-file")) ||
		bytes.Contains(head, []byte("<dl")) ||
		bytes.Contains(head, []byte("<html"))
}

// parseURLList returns the non-empty lines of data. Lines starting with #
// are comments.
func parseURLList(data []byte) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading URL list: %w", err)
	}
	return urls, nil
}
