package main

import (
	"fmt"
	"io"
	"os"

	"github.com/landitus/bookmarks"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) (err error) {
	status, err := bookmarks.ParseStatus(c.Status)
	if err != nil {
		return fail(deps, err)
	}

	items, err := deps.Items.FindItems(deps.Ctx, bookmarks.ItemFilter{UserID: &c.User, Status: &status})
	if err != nil {
		return fail(deps, err)
	}

	var w io.Writer = deps.Stdout
	if c.Output != "" {
		f, ferr := os.Create(c.Output)
		if ferr != nil {
			return fail(deps, ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	feed := &bookmarks.Feed{
		Title:       fmt.Sprintf("Bookmarks: %s", status),
		Description: fmt.Sprintf("Saved items in %s", status),
		Items:       items,
	}
	if err := deps.FeedWriter.WriteFeed(w, feed); err != nil {
		return fail(deps, err)
	}

	if c.Output != "" {
		fmt.Fprintf(deps.Stderr, "Exported %d items to %s\n", len(items), c.Output)
	}
	return nil
}
