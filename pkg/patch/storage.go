package patch

import "context"

// Document is a decoded file split into lines that keep their terminators.
type Document struct {
	Path    string
	Content string
	Lines   []string
}

// NewDocument splits content into a Document.
func NewDocument(path, content string) Document {
	return Document{Path: path, Content: content, Lines: SplitLines(content)}
}

// Hash fingerprints the document content.
func (d Document) Hash() string {
	return FingerprintString(d.Content)
}

// Storage reads and writes whole files for the engine. Implementations wrap
// ErrNotFound for missing files and ErrDecode for undecodable content.
// WriteAtomic must never leave a partially written file observable.
type Storage interface {
	Read(ctx context.Context, path, encoding string) (Document, error)
	WriteAtomic(ctx context.Context, path, encoding, content string) error
	Exists(ctx context.Context, path string) (bool, error)
}
