// Package textacq turns raw planilla PDF bytes into plain text by cascading
// extraction backends: embedded text first, structured content-stream decoding
// second, and optionally an external pdftotext binary. Different PDF producers
// embed text differently; cascading maximizes recall without the caller
// knowing which backend will work.
package textacq

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// BackendType identifies a text extraction backend.
type BackendType string

const (
	BackendEmbedded   BackendType = "embedded"
	BackendStructured BackendType = "structured"
	BackendCommand    BackendType = "command"
)

// Backend extracts plain text from PDF bytes over at most maxPages pages.
type Backend interface {
	Type() BackendType
	ExtractText(ctx context.Context, raw []byte, maxPages int) (string, error)
}

// BackendError carries the failing backend and operation for diagnostics.
type BackendError struct {
	Backend BackendType
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("pdf %s backend error in %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Options configures an Acquirer.
type Options struct {
	MaxPages int // page cap per document
	MinChars int // minimum non-whitespace characters for a usable result

	// PdftotextPath enables the external command backend when non-empty.
	PdftotextPath string
}

// Acquirer runs the backend cascade. Acquisition never returns an error; it
// degrades to an empty string when every backend fails.
type Acquirer struct {
	backends []Backend
	opts     Options
	logger   *zap.Logger
}

// NewAcquirer builds the cascade in fixed priority order.
func NewAcquirer(opts Options, logger *zap.Logger) *Acquirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.MinChars <= 0 {
		opts.MinChars = 50
	}

	backends := []Backend{
		NewEmbeddedBackend(),
		NewStructuredBackend(),
	}
	if opts.PdftotextPath != "" {
		backends = append(backends, NewCommandBackend(opts.PdftotextPath, nil, logger))
	}

	return &Acquirer{backends: backends, opts: opts, logger: logger}
}

// Acquire returns the first usable text produced by the cascade, or "" when
// no backend succeeds. Backend errors and panics are swallowed; they only
// degrade the result, never abort the document.
func (a *Acquirer) Acquire(ctx context.Context, name string, raw []byte) string {
	for _, backend := range a.backends {
		text, err := a.tryBackend(ctx, backend, raw)
		if err != nil {
			a.logger.Debug("text backend failed",
				zap.String("file", name),
				zap.String("backend", string(backend.Type())),
				zap.Error(err))
			continue
		}
		if !a.usable(text) {
			a.logger.Debug("text backend produced too little text",
				zap.String("file", name),
				zap.String("backend", string(backend.Type())),
				zap.Int("chars", len(text)))
			continue
		}
		a.logger.Debug("text acquired",
			zap.String("file", name),
			zap.String("backend", string(backend.Type())),
			zap.Int("chars", len(text)))
		return text
	}
	return ""
}

// tryBackend shields the cascade from backend panics. Malformed PDFs are
// known to panic deep inside parsing libraries.
func (a *Acquirer) tryBackend(ctx context.Context, backend Backend, raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &BackendError{
				Backend: backend.Type(),
				Op:      "extract_text",
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return backend.ExtractText(ctx, raw, a.opts.MaxPages)
}

// usable reports whether text carries enough non-whitespace content.
func (a *Acquirer) usable(text string) bool {
	count := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
			if count >= a.opts.MinChars {
				return true
			}
		}
	}
	return false
}

// joinPages concatenates per-page text with newline separators, skipping
// empty pages the way the source documents are assembled.
func joinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
