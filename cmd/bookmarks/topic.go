package main

import (
	"fmt"

	"github.com/landitus/bookmarks"
)

// Run executes the topics command.
func (c *TopicsCmd) Run(deps *Dependencies) error {
	topics, err := deps.Topics.FindTopics(deps.Ctx, bookmarks.TopicFilter{UserID: &c.User})
	if err != nil {
		return fail(deps, err)
	}

	if len(topics) == 0 {
		fmt.Fprintln(deps.Stdout, "No topics yet. Topics are added when items are enriched.")
		return nil
	}

	for _, t := range topics {
		fmt.Fprintf(deps.Stdout, "%-24s  %s (%d)\n", t.Slug, t.Name, t.ItemCount)
	}
	return nil
}
