package writer

// FileTagger mirrors a color label into the OS file-tagging facility.
// Implementations must not rewrite file contents.
type FileTagger interface {
	SetLabel(path, label string) error
}
