package main

import (
	"fmt"
	"time"

	"github.com/landitus/bookmarks"
)

// Run executes the key create command.
func (c *KeyCreateCmd) Run(deps *Dependencies) error {
	key := &bookmarks.APIKey{UserID: c.User, Name: c.Name}
	token, err := deps.APIKeys.CreateAPIKey(deps.Ctx, key)
	if err != nil {
		return fail(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Created API key %q (%s)\n", key.Name, key.ID)
	fmt.Fprintln(deps.Stdout, token)
	fmt.Fprintln(deps.Stderr, "Store this key now; it cannot be shown again.")
	return nil
}

// Run executes the key list command.
func (c *KeyListCmd) Run(deps *Dependencies) error {
	keys, err := deps.APIKeys.FindAPIKeys(deps.Ctx, bookmarks.APIKeyFilter{UserID: &c.User})
	if err != nil {
		return fail(deps, err)
	}

	if len(keys) == 0 {
		fmt.Fprintln(deps.Stdout, "No API keys. Use 'bookmarks key create' to add one.")
		return nil
	}

	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format(time.DateTime)
		}
		fmt.Fprintf(deps.Stdout, "%s  %s…  %s  last used %s\n", k.ID, k.Prefix, k.Name, lastUsed)
	}
	return nil
}

// Run executes the key revoke command.
func (c *KeyRevokeCmd) Run(deps *Dependencies) error {
	keys, err := deps.APIKeys.FindAPIKeys(deps.Ctx, bookmarks.APIKeyFilter{ID: &c.ID, UserID: &c.User})
	if err != nil {
		return fail(deps, err)
	}
	if len(keys) == 0 {
		fmt.Fprintf(deps.Stderr, "error: API key %q not found. Use 'bookmarks key list' to see your keys.\n", c.ID)
		return bookmarks.Errorf(bookmarks.ENOTFOUND, "API key %q not found", c.ID)
	}

	if err := deps.APIKeys.DeleteAPIKey(deps.Ctx, c.ID); err != nil {
		return fail(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Revoked API key %q\n", keys[0].Name)
	return nil
}
