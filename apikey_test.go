package bookmarks_test

import (
	"context"
	"strings"
	"testing"

	"github.com/landitus/bookmarks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKeyToken(t *testing.T) {
	t.Parallel()

	token, err := bookmarks.GenerateAPIKeyToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, bookmarks.APIKeyPrefix))
	assert.Len(t, token, len(bookmarks.APIKeyPrefix)+64)
	assert.True(t, bookmarks.ValidAPIKeyToken(token))

	other, err := bookmarks.GenerateAPIKeyToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestValidAPIKeyToken(t *testing.T) {
	t.Parallel()

	assert.False(t, bookmarks.ValidAPIKeyToken(""))
	assert.False(t, bookmarks.ValidAPIKeyToken("bk_short"))
	assert.False(t, bookmarks.ValidAPIKeyToken("xx_"+strings.Repeat("a", 64)))
	assert.False(t, bookmarks.ValidAPIKeyToken("bk_"+strings.Repeat("z", 64)))
	assert.True(t, bookmarks.ValidAPIKeyToken("bk_"+strings.Repeat("a", 64)))
}

func TestHashAPIKeyToken(t *testing.T) {
	t.Parallel()

	h := bookmarks.HashAPIKeyToken("bk_abc")

	assert.Len(t, h, 64)
	assert.Equal(t, h, bookmarks.HashAPIKeyToken("bk_abc"))
	assert.NotEqual(t, h, bookmarks.HashAPIKeyToken("bk_abd"))
}

func TestAPIKeyTokenPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bk_01234567", bookmarks.APIKeyTokenPrefix("bk_0123456789abcdef"))
	assert.Equal(t, "bk_", bookmarks.APIKeyTokenPrefix("bk_"))
}

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, bookmarks.UserIDFromContext(ctx))

	ctx = bookmarks.NewContextWithUserID(ctx, "user-1")
	assert.Equal(t, "user-1", bookmarks.UserIDFromContext(ctx))
}
