package shipbook

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Document is validated input text. The extraction core only understands
// free text; the intake boundary rejects binary payloads instead of burning
// model calls on them.
type Document struct {
	text string
}

// NewTextDocument wraps text already known to be plain.
func NewTextDocument(text string) *Document {
	return &Document{text: text}
}

// NewDocument sniffs the payload and accepts only text-shaped content.
// Empty input is allowed; the workflow still produces a complete, empty
// booking record for it.
func NewDocument(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return &Document{}, nil
	}
	detected := mimetype.Detect(raw)
	if !isTextual(detected) {
		return nil, fmt.Errorf("%w: detected %s", ErrBinaryInput, detected.String())
	}
	return &Document{text: string(raw)}, nil
}

// Text returns the document content.
func (d *Document) Text() string { return d.text }

func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
