package textacq

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// StructuredBackend decodes page content streams with pdfcpu and scrapes the
// text-showing operators out of them. It handles producers whose embedded
// text the direct path cannot read, at the cost of ignoring font encodings
// beyond simple byte encodings.
type StructuredBackend struct{}

// NewStructuredBackend creates the structured-text backend.
func NewStructuredBackend() *StructuredBackend {
	return &StructuredBackend{}
}

// Type returns the backend identifier.
func (b *StructuredBackend) Type() BackendType {
	return BackendStructured
}

// ExtractText decodes text operators from the first maxPages content streams.
func (b *StructuredBackend) ExtractText(_ context.Context, raw []byte, maxPages int) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(raw), conf)
	if err != nil {
		return "", &BackendError{
			Backend: BackendStructured,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return "", &BackendError{
			Backend: BackendStructured,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	limit := ctx.PageCount
	if limit > maxPages {
		limit = maxPages
	}

	pages := make([]string, 0, limit)
	for pageNum := 1; pageNum <= limit; pageNum++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNum)
		if err != nil || r == nil {
			// Continue with other pages even if one fails
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		pages = append(pages, decodeTextOperators(stream))
	}

	return joinPages(pages), nil
}
