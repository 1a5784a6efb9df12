package bookmarks_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/landitus/bookmarks"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := bookmarks.Errorf(bookmarks.ENOTFOUND, "item %q not found", "abc")

	assert.Equal(t, bookmarks.ENOTFOUND, bookmarks.ErrorCode(err))
	assert.Equal(t, "item \"abc\" not found", bookmarks.ErrorMessage(err))
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, bookmarks.ErrorCode(nil))
	})

	t.Run("foreign error is internal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, bookmarks.EINTERNAL, bookmarks.ErrorCode(errors.New("disk on fire")))
	})

	t.Run("wrapped application error keeps its code", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("saving: %w", bookmarks.Errorf(bookmarks.EINVALID, "bad url"))
		assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
		assert.Equal(t, "bad url", bookmarks.ErrorMessage(err))
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, bookmarks.ErrorMessage(nil))
	})

	t.Run("foreign error hides details", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Internal error.", bookmarks.ErrorMessage(errors.New("connection refused")))
	})
}
