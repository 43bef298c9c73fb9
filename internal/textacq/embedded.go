package textacq

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// EmbeddedBackend extracts text that PDF producers embedded directly,
// using ledongthuc/pdf. This is the cheapest and most faithful path and
// therefore runs first.
type EmbeddedBackend struct{}

// NewEmbeddedBackend creates the embedded-text backend.
func NewEmbeddedBackend() *EmbeddedBackend {
	return &EmbeddedBackend{}
}

// Type returns the backend identifier.
func (b *EmbeddedBackend) Type() BackendType {
	return BackendEmbedded
}

// ExtractText reads plain text from the first maxPages pages.
func (b *EmbeddedBackend) ExtractText(_ context.Context, raw []byte, maxPages int) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", &BackendError{
			Backend: BackendEmbedded,
			Op:      "open",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	limit := reader.NumPage()
	if limit > maxPages {
		limit = maxPages
	}

	pages := make([]string, 0, limit)
	for pageNum := 1; pageNum <= limit; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}
		pages = append(pages, content)
	}

	return joinPages(pages), nil
}
