// Package pipeline wires text acquisition, field extraction and
// reconciliation into a per-document processor and the batch loop around it.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lector-pagos/planilla-reader/internal/extract"
	"github.com/lector-pagos/planilla-reader/internal/reconcile"
	"github.com/lector-pagos/planilla-reader/internal/textacq"
)

// Status classifies the outcome of one document.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning" // processed, but no text could be acquired
	StatusError   Status = "error"   // not processed at all
)

// FileResult is the per-document entry of the batch summary.
type FileResult struct {
	File    string
	Status  Status
	Rows    int
	Message string
}

// Summary aggregates the batch: one result per input document, in input
// order, plus the total emitted row count.
type Summary struct {
	Results   []FileResult
	TotalRows int
}

// Counts returns how many documents ended in each status.
func (s Summary) Counts() (ok, warn, failed int) {
	for _, r := range s.Results {
		switch r.Status {
		case StatusSuccess:
			ok++
		case StatusWarning:
			warn++
		case StatusError:
			failed++
		}
	}
	return ok, warn, failed
}

// Processor runs the extraction pipeline for planilla PDFs.
type Processor struct {
	acquirer    *textacq.Acquirer
	extractor   *extract.Extractor
	reconciler  *reconcile.Reconciler
	maxFileSize int64
	logger      *zap.Logger
}

// NewProcessor assembles a processor. A nil logger disables logging.
func NewProcessor(
	acquirer *textacq.Acquirer,
	extractor *extract.Extractor,
	reconciler *reconcile.Reconciler,
	maxFileSize int64,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		acquirer:    acquirer,
		extractor:   extractor,
		reconciler:  reconciler,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// ProcessBatch runs every document sequentially and independently. A single
// document's failure never aborts the batch; it is recorded in the summary
// and the loop moves on. Output row order follows input document order.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string) ([]reconcile.OutputRow, Summary) {
	var (
		all     []reconcile.OutputRow
		summary Summary
	)

	for _, path := range paths {
		name := filepath.Base(path)
		rows, err := p.ProcessFile(ctx, path)

		switch {
		case err != nil:
			p.logger.Warn("document failed", zap.String("file", name), zap.Error(err))
			summary.Results = append(summary.Results, FileResult{
				File:    name,
				Status:  StatusError,
				Message: err.Error(),
			})
		case len(rows) == 0:
			p.logger.Warn("no text extracted", zap.String("file", name))
			summary.Results = append(summary.Results, FileResult{
				File:    name,
				Status:  StatusWarning,
				Message: "no se pudo extraer texto",
			})
		default:
			all = append(all, rows...)
			summary.Results = append(summary.Results, FileResult{
				File:   name,
				Status: StatusSuccess,
				Rows:   len(rows),
			})
		}
	}

	summary.TotalRows = len(all)
	return all, summary
}

// ProcessFile runs one document through the pipeline. An empty row slice with
// a nil error means text acquisition failed and the document was skipped.
func (p *Processor) ProcessFile(ctx context.Context, path string) ([]reconcile.OutputRow, error) {
	raw, err := p.readPDF(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	text := p.acquirer.Acquire(ctx, name, raw)
	if text == "" {
		return nil, nil
	}

	fields := p.extractor.Extract(text)
	doc := reconcile.Document{
		File:   name,
		Fields: fields,
		Rows:   extract.ExtractRows(text),
	}

	rows := p.reconciler.Resolve(doc)

	// A document that supplied its own single identity gets cross-checked
	// against the reference data; the check annotates, never replaces.
	if len(doc.Rows) == 0 && fields.CUSSP.Found && fields.Afiliado.Found && len(rows) == 1 {
		v := p.reconciler.Validate(
			fields.RUC.String(), fields.Periodo.String(),
			fields.CUSSP.Value, fields.Afiliado.Value)
		if v.Found {
			rows[0].Observacion = v.Observation
		}
	}

	return rows, nil
}

// readPDF loads and validates one input file.
func (p *Processor) readPDF(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return nil, fmt.Errorf("file is not a PDF: %s", path)
	}
	if info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), p.maxFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return raw, nil
}

// FindPDFs lists the PDF files of a directory in name order.
func FindPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
