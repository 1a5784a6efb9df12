package bookmarks

// LanguageDetector guesses the natural language of text.
type LanguageDetector interface {
	// DetectLanguage returns a lower-case ISO 639-1 code, or "" when the
	// language cannot be determined.
	DetectLanguage(text string) string
}
