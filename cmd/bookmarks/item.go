package main

import (
	"fmt"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/ingest"
)

// Run executes the save command.
func (c *SaveCmd) Run(deps *Dependencies) error {
	status, err := bookmarks.ParseStatus(c.Status)
	if err != nil {
		return fail(deps, err)
	}

	item, created, err := deps.Ingester.Save(deps.Ctx, c.User, c.URL, ingest.SaveOptions{Status: status})
	if err != nil {
		return fail(deps, err)
	}

	if !created {
		fmt.Fprintf(deps.Stdout, "Already saved %s (%s), now in %s\n", item.URL, item.ID, item.Status)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Saved %q (%s)\n", item.DisplayTitle(), item.ID)
	switch item.ProcessingStatus {
	case bookmarks.ProcessingFailed:
		fmt.Fprintf(deps.Stderr, "  processing failed: %s\n", item.ProcessingError)
	case bookmarks.ProcessingPending:
		fmt.Fprintln(deps.Stdout, "  queued for processing")
	}
	return nil
}

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := bookmarks.ItemFilter{
		UserID: &c.User,
		Query:  c.Query,
		Limit:  c.Limit,
	}
	if c.Status != "" {
		status, err := bookmarks.ParseStatus(c.Status)
		if err != nil {
			return fail(deps, err)
		}
		filter.Status = &status
	}
	if c.Type != "" {
		typ, err := bookmarks.ParseContentType(c.Type)
		if err != nil {
			return fail(deps, err)
		}
		filter.Type = &typ
	}
	if c.Topic != "" {
		slug := bookmarks.Slugify(c.Topic)
		filter.Topic = &slug
	}
	if c.Favorite {
		filter.Favorite = &c.Favorite
	}

	items, err := deps.Items.FindItems(deps.Ctx, filter)
	if err != nil {
		return fail(deps, err)
	}

	if len(items) == 0 {
		fmt.Fprintln(deps.Stdout, "No items found. Use 'bookmarks save' to add one.")
		return nil
	}

	for _, item := range items {
		star := " "
		if item.Favorite {
			star = "*"
		}
		fmt.Fprintf(deps.Stdout, "%s %s  %-7s  %-10s  %s  %s\n",
			star, item.ID, item.Status, item.Type, item.DisplayTitle(), item.URL)
	}
	return nil
}

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	item, err := findOwnedItem(deps, c.User, c.ID)
	if err != nil {
		return fail(deps, err)
	}
	fmt.Fprint(deps.Stdout, bookmarks.FormatItem(item))
	return nil
}

// Run executes the move command.
func (c *MoveCmd) Run(deps *Dependencies) error {
	status, err := bookmarks.ParseStatus(c.Status)
	if err != nil {
		return fail(deps, err)
	}
	if _, err := findOwnedItem(deps, c.User, c.ID); err != nil {
		return fail(deps, err)
	}

	item, err := deps.Items.UpdateItem(deps.Ctx, c.ID, bookmarks.ItemUpdate{Status: &status})
	if err != nil {
		return fail(deps, err)
	}
	fmt.Fprintf(deps.Stdout, "Moved %q to %s\n", item.DisplayTitle(), item.Status)
	return nil
}

// Run executes the favorite command.
func (c *FavoriteCmd) Run(deps *Dependencies) error {
	if _, err := findOwnedItem(deps, c.User, c.ID); err != nil {
		return fail(deps, err)
	}

	favorite := !c.Off
	item, err := deps.Items.UpdateItem(deps.Ctx, c.ID, bookmarks.ItemUpdate{Favorite: &favorite})
	if err != nil {
		return fail(deps, err)
	}

	if favorite {
		fmt.Fprintf(deps.Stdout, "Marked %q as favorite\n", item.DisplayTitle())
	} else {
		fmt.Fprintf(deps.Stdout, "Unmarked %q as favorite\n", item.DisplayTitle())
	}
	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return bookmarks.Errorf(bookmarks.EINVALID, "use --force to confirm deletion")
	}

	item, err := findOwnedItem(deps, c.User, c.ID)
	if err != nil {
		return fail(deps, err)
	}
	if err := deps.Ingester.Delete(deps.Ctx, c.User, c.ID); err != nil {
		return fail(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Deleted %q\n", item.DisplayTitle())
	return nil
}

// Run executes the reprocess command.
// A zero Wait waits until processing finishes.
func (c *ReprocessCmd) Run(deps *Dependencies) error {
	wait := c.Wait
	if wait <= 0 {
		wait = -1
	}
	item, done, err := deps.Ingester.Reprocess(deps.Ctx, c.User, c.ID, wait)
	if err != nil {
		return fail(deps, err)
	}

	switch {
	case !done && deps.Queue != nil:
		fmt.Fprintf(deps.Stdout, "Queued %q for reprocessing; a worker will finish it\n", item.DisplayTitle())
	case !done:
		// Processing runs in this process and stops when it exits.
		fmt.Fprintf(deps.Stderr, "Gave up on %q after %s; it stays pending until the server resumes it\n", item.DisplayTitle(), c.Wait)
		return bookmarks.Errorf(bookmarks.EINTERNAL, "reprocess abandoned after %s", c.Wait)
	case item.ProcessingStatus == bookmarks.ProcessingFailed:
		fmt.Fprintf(deps.Stderr, "error: processing failed: %s\n", item.ProcessingError)
		return bookmarks.Errorf(bookmarks.EINTERNAL, "processing failed: %s", item.ProcessingError)
	default:
		fmt.Fprintf(deps.Stdout, "Reprocessed %q (%s, %d min read)\n", item.DisplayTitle(), item.Type, item.ReadingTime)
	}
	return nil
}

// findOwnedItem returns the item if it belongs to userID.
func findOwnedItem(deps *Dependencies, userID, id string) (*bookmarks.Item, error) {
	item, err := deps.Items.FindItemByID(deps.Ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "item not found")
	}
	return item, nil
}

// fail prints the user-facing message of err and returns err.
func fail(deps *Dependencies, err error) error {
	fmt.Fprintf(deps.Stderr, "error: %s\n", bookmarks.ErrorMessage(err))
	return err
}
