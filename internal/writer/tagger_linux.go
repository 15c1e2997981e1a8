//go:build linux

package writer

import (
	"golang.org/x/sys/unix"
)

// xattrName is the freedesktop.org tag attribute read by file managers.
const xattrName = "user.xdg.tags"

// XattrTagger stores the color label as an extended attribute. Attributes
// live in the inode, so the file's bytes are untouched and RAW files are
// safe to tag.
type XattrTagger struct{}

// NewTagger returns the platform tagger.
func NewTagger() FileTagger {
	return XattrTagger{}
}

// SetLabel writes the label as the file's tag list. An empty label clears
// the attribute.
func (XattrTagger) SetLabel(path, label string) error {
	if label == "" {
		err := unix.Removexattr(path, xattrName)
		if err == unix.ENODATA {
			return nil
		}
		return err
	}
	return unix.Setxattr(path, xattrName, []byte(label), 0)
}
