//go:build !linux

package writer

// NewTagger returns a no-op tagger on platforms without user xattrs.
func NewTagger() FileTagger {
	return noopTagger{}
}

type noopTagger struct{}

func (noopTagger) SetLabel(string, string) error { return nil }
