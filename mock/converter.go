package mock

import "github.com/landitus/bookmarks"

var _ bookmarks.Converter = (*Converter)(nil)

// Converter is a mock implementation of bookmarks.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
