package gemini_test

import (
	"context"
	"testing"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var _ bookmarks.Enricher = (*gemini.Enricher)(nil)

func TestEnricher_Enrich_ReturnsErrorWhenURLEmpty(t *testing.T) {
	t.Parallel()

	enricher := gemini.NewEnricher(nil, "") // nil client ok for this test

	_, err := enricher.Enrich(context.Background(), bookmarks.EnrichRequest{Content: "text"})

	require.Error(t, err)
	assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
	assert.Contains(t, bookmarks.ErrorMessage(err), "URL required")
}

func TestEnricher_Enrich_ReturnsErrorWhenNothingToEnrich(t *testing.T) {
	t.Parallel()

	enricher := gemini.NewEnricher(nil, "")

	_, err := enricher.Enrich(context.Background(), bookmarks.EnrichRequest{URL: "https://example.com"})

	require.Error(t, err)
	assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
}

func TestEnricher_Enrich_ReturnsNotImplementedWithoutClient(t *testing.T) {
	t.Parallel()

	enricher := gemini.NewEnricher(nil, "")

	_, err := enricher.Enrich(context.Background(), bookmarks.EnrichRequest{
		URL:   "https://example.com",
		Title: "Example",
	})

	assert.Equal(t, bookmarks.ENOTIMPLEMENTED, bookmarks.ErrorCode(err))
}

func TestBuildConfig_ConstrainsResponseToSchema(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	require.NotNil(t, config.SystemInstruction)
	require.NotEmpty(t, config.SystemInstruction.Parts)
	assert.Contains(t, config.SystemInstruction.Parts[0].Text, "topic tags")
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.2, *config.Temperature, 0.001)

	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.ResponseSchema)
	assert.Equal(t, genai.TypeObject, config.ResponseSchema.Type)
	assert.ElementsMatch(t, []string{"type", "summary", "topics"}, config.ResponseSchema.Required)

	typeSchema := config.ResponseSchema.Properties["type"]
	require.NotNil(t, typeSchema)
	assert.Len(t, typeSchema.Enum, len(bookmarks.ContentTypes))
	assert.Contains(t, typeSchema.Enum, "repository")
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	t.Run("includes page fields", func(t *testing.T) {
		t.Parallel()

		prompt := gemini.BuildPrompt(bookmarks.EnrichRequest{
			URL:         "https://example.com/post",
			Title:       "A Post",
			Description: "About things.",
			Content:     "# A Post\n\nBody.",
			Type:        bookmarks.TypeArticle,
		})

		assert.Contains(t, prompt, "<url>https://example.com/post</url>")
		assert.Contains(t, prompt, "<title>A Post</title>")
		assert.Contains(t, prompt, "<description>About things.</description>")
		assert.Contains(t, prompt, "<detected_type>article</detected_type>")
		assert.Contains(t, prompt, "<content>\n# A Post\n\nBody.\n</content>")
	})

	t.Run("omits empty fields", func(t *testing.T) {
		t.Parallel()

		prompt := gemini.BuildPrompt(bookmarks.EnrichRequest{URL: "https://example.com"})

		assert.NotContains(t, prompt, "<title>")
		assert.NotContains(t, prompt, "<content>")
	})
}

func TestParseEnrichment(t *testing.T) {
	t.Parallel()

	t.Run("decodes JSON response", func(t *testing.T) {
		t.Parallel()

		e, err := gemini.ParseEnrichment(`{"type":"video","summary":" A talk. ","topics":["Go","Concurrency"]}`)

		require.NoError(t, err)
		assert.Equal(t, bookmarks.TypeVideo, e.Type)
		assert.Equal(t, "A talk.", e.Summary)
		assert.Equal(t, []string{"Go", "Concurrency"}, e.Topics)
	})

	t.Run("tolerates code fences", func(t *testing.T) {
		t.Parallel()

		e, err := gemini.ParseEnrichment("```json\n{\"type\":\"article\",\"summary\":\"S\",\"topics\":[]}\n```")

		require.NoError(t, err)
		assert.Equal(t, bookmarks.TypeArticle, e.Type)
	})

	t.Run("drops unknown type and cleans topics", func(t *testing.T) {
		t.Parallel()

		e, err := gemini.ParseEnrichment(`{"type":"blog","summary":"S","topics":["a","A","","b","c","d","e","f"]}`)

		require.NoError(t, err)
		assert.Empty(t, e.Type)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, e.Topics)
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.ParseEnrichment("Sure! Here is the summary.")

		require.Error(t, err)
	})
}
