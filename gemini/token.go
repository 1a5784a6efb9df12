package gemini

import (
	"context"
	"log/slog"

	"github.com/landitus/bookmarks"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// FallbackTokenizerModel is used when the local tokenizer does not know the
// configured model.
const FallbackTokenizerModel = "gemini-2.0-flash"

var _ bookmarks.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens locally with the Gemini tokenizer, without an
// API call.
type TokenCounter struct {
	tok   *tokenizer.LocalTokenizer
	model string
}

// NewTokenCounter returns a TokenCounter for model, falling back to
// FallbackTokenizerModel when the tokenizer does not support it.
// An empty model selects DefaultModel.
func NewTokenCounter(model string, logger *slog.Logger) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil && model != FallbackTokenizerModel {
		if logger != nil {
			logger.Debug("tokenizer fallback", "model", model, "fallback", FallbackTokenizerModel, "err", err)
		}
		model = FallbackTokenizerModel
		tok, err = tokenizer.NewLocalTokenizer(model)
	}
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok, model: model}, nil
}

// Model returns the model whose tokenizer is in use.
func (tc *TokenCounter) Model() string {
	return tc.model
}

// CountTokens counts the tokens of text as a single user message.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := tc.tok.CountTokens([]*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}
