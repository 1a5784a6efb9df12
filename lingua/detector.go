// Package lingua implements bookmarks.LanguageDetector with lingua-go.
package lingua

import (
	"strings"
	"unicode/utf8"

	"github.com/landitus/bookmarks"
	"github.com/pemistahl/lingua-go"
)

// DefaultMinConfidence is the confidence below which no language is reported.
const DefaultMinConfidence = 0.3

// maxSampleRunes bounds the text examined per detection.
const maxSampleRunes = 2000

// minSampleRunes is the shortest text worth classifying.
const minSampleRunes = 20

var _ bookmarks.LanguageDetector = (*Detector)(nil)

// DefaultLanguages are the languages the detector distinguishes unless
// configured otherwise. A smaller set loads faster and is more accurate on
// short texts.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Dutch,
	lingua.Polish,
	lingua.Russian,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Korean,
}

// Detector detects the natural language of item content.
// Detector is safe for concurrent use.
type Detector struct {
	detector      lingua.LanguageDetector
	minConfidence float64
}

// NewDetector builds a detector for the given languages, or DefaultLanguages
// when none are given.
func NewDetector(languages ...lingua.Language) *Detector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			WithPreloadedLanguageModels().
			Build(),
		minConfidence: DefaultMinConfidence,
	}
}

// DetectLanguage returns the ISO 639-1 code of the most likely language of
// text, or "" when the text is too short or no language is confident enough.
func (d *Detector) DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minSampleRunes {
		return ""
	}
	if utf8.RuneCountInString(text) > maxSampleRunes {
		text = string([]rune(text)[:maxSampleRunes])
	}

	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	if d.detector.ComputeLanguageConfidence(text, language) < d.minConfidence {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
