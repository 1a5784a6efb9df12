// Package gemini implements bookmarks.Enricher and bookmarks.TokenCounter
// with Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/landitus/bookmarks"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const systemInstruction = `You help a reader organize links they saved to read later.
Given a saved page, you:
- classify it as exactly one of the allowed content types,
- write a neutral summary of two or three sentences in the language of the page,
- propose up to five short topic tags (one to three words each, Title Case, no "#").
Base everything only on the provided page. Never invent facts.`

// Ensure Enricher implements bookmarks.Enricher at compile time.
var _ bookmarks.Enricher = (*Enricher)(nil)

// Enricher implements bookmarks.Enricher using Google Gemini.
type Enricher struct {
	client *genai.Client
	model  string
}

// NewEnricher creates a new Enricher. An empty model selects DefaultModel.
func NewEnricher(client *genai.Client, model string) *Enricher {
	if model == "" {
		model = DefaultModel
	}
	return &Enricher{client: client, model: model}
}

// Enrich classifies and summarizes a saved page and proposes topics.
func (e *Enricher) Enrich(ctx context.Context, req bookmarks.EnrichRequest) (*bookmarks.Enrichment, error) {
	if req.URL == "" {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "URL required")
	}
	if req.Content == "" && req.Title == "" && req.Description == "" {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "nothing to enrich for %s", req.URL)
	}
	if e.client == nil {
		return nil, bookmarks.Errorf(bookmarks.ENOTIMPLEMENTED, "gemini client not configured")
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: BuildPrompt(req)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, bookmarks.Errorf(bookmarks.EINTERNAL, "gemini returned nil result")
	}

	return ParseEnrichment(result.Text())
}

// BuildConfig returns the GenerateContentConfig for enrichment calls. The
// response is constrained to JSON matching the enrichment schema.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)

	types := make([]string, 0, len(bookmarks.ContentTypes))
	for _, t := range bookmarks.ContentTypes {
		types = append(types, string(t))
	}

	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"type":    {Type: genai.TypeString, Enum: types},
				"summary": {Type: genai.TypeString},
				"topics": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required:         []string{"type", "summary", "topics"},
			PropertyOrdering: []string{"type", "summary", "topics"},
		},
	}
}

// BuildPrompt builds the user prompt describing the saved page.
func BuildPrompt(req bookmarks.EnrichRequest) string {
	var sb strings.Builder
	sb.WriteString("<page>\n")
	fmt.Fprintf(&sb, "<url>%s</url>\n", req.URL)
	if req.Title != "" {
		fmt.Fprintf(&sb, "<title>%s</title>\n", req.Title)
	}
	if req.Description != "" {
		fmt.Fprintf(&sb, "<description>%s</description>\n", req.Description)
	}
	if req.Type != "" {
		fmt.Fprintf(&sb, "<detected_type>%s</detected_type>\n", req.Type)
	}
	if req.Content != "" {
		fmt.Fprintf(&sb, "<content>\n%s\n</content>\n", req.Content)
	}
	sb.WriteString("</page>\n\n")
	sb.WriteString("Classify, summarize and tag this page.")
	return sb.String()
}

type enrichmentJSON struct {
	Type    string   `json:"type"`
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// ParseEnrichment decodes a model response. Markdown code fences around the
// JSON are tolerated. Unknown types are dropped and topics are cleaned.
func ParseEnrichment(text string) (*bookmarks.Enrichment, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var v enrichmentJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, fmt.Errorf("decoding enrichment: %w", err)
	}

	out := &bookmarks.Enrichment{
		Summary: strings.TrimSpace(v.Summary),
		Topics:  bookmarks.CleanTopics(v.Topics),
	}
	if t, err := bookmarks.ParseContentType(v.Type); err == nil {
		out.Type = t
	}
	return out, nil
}
