// Package reconcile resolves the affiliate identity of each planilla: from
// the document's own table when present, otherwise from the offline reference
// datasets, annotating every output row with how its identity was obtained.
package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lector-pagos/planilla-reader/internal/extract"
	"github.com/lector-pagos/planilla-reader/internal/refdata"
)

// Document is one processed planilla: its source file name, the document
// level fields and whatever affiliate rows were recovered from its table.
type Document struct {
	File   string
	Fields extract.FieldSet
	Rows   []extract.AffiliateRow
}

// OutputRow is one exported record: document-level fields plus exactly one
// affiliate identity. Monto is populated only on the first row of a document
// so multi-affiliate planillas are not double-counted when summed by hand;
// on later rows it is blank, which is distinct from the sentinel.
type OutputRow struct {
	Archivo     string
	RUC         string
	RazonSocial string
	Periodo     string
	CUSSP       string
	Afiliado    string
	FechaPago   string
	NPlanilla   string
	Monto       string
	Observacion string
}

// Observation wording, carried over from the reporting conventions of the
// reference datasets.
const (
	obsValidado     = "Validado"
	obsNoEncontrado = "No encontrado en el PDF ni en las bases locales"
)

func obsFromTable(table string) string {
	return fmt.Sprintf("Datos de base local (%s)", table)
}

func obsNameMismatch(base, pdf string, similarity float64) string {
	return fmt.Sprintf("Nombre no coincide exactamente. Base: %s | PDF: %s (Similitud: %.1f%%)",
		base, pdf, similarity*100)
}

// RefIndex is the reference dataset lookup the reconciler consults.
// *refdata.Index satisfies it.
type RefIndex interface {
	Lookup(documento, periodo, cussp string) ([]refdata.Row, string)
}

// Reconciler resolves affiliate identities against the reference index.
type Reconciler struct {
	index  RefIndex
	logger *zap.Logger
}

// New creates a reconciler. A nil logger disables logging.
func New(index RefIndex, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{index: index, logger: logger}
}

// Resolve emits the output rows for one document. Policy, in order:
//  1. affiliate rows extracted from the document itself;
//  2. single-record extraction when both CUSSP and name were detected;
//  3. reference lookup by (RUC, periodo) fanning out to one row per match;
//  4. a single fully-sentinel row when nothing matched anywhere.
func (r *Reconciler) Resolve(doc Document) []OutputRow {
	fields := doc.Fields

	// 1. Rows straight from the document's table.
	if len(doc.Rows) > 0 {
		rows := make([]OutputRow, 0, len(doc.Rows))
		for i, a := range doc.Rows {
			row := r.baseRow(doc, i == 0)
			row.CUSSP = a.CUSSP
			row.Afiliado = a.Name
			rows = append(rows, row)
		}
		return rows
	}

	// 2. Single-record extraction.
	if fields.CUSSP.Found && fields.Afiliado.Found {
		row := r.baseRow(doc, true)
		row.CUSSP = fields.CUSSP.Value
		row.Afiliado = fields.Afiliado.Value
		return []OutputRow{row}
	}

	// 3. Nothing extractable; fan out from the reference datasets. No CUSSP
	// filter applies since none was extracted.
	refRows, table := r.index.Lookup(fields.RUC.String(), fields.Periodo.String(), "")
	if len(refRows) > 0 {
		r.logger.Debug("affiliates resolved from reference data",
			zap.String("file", doc.File),
			zap.String("table", table),
			zap.Int("count", len(refRows)))
		rows := make([]OutputRow, 0, len(refRows))
		for i, ref := range refRows {
			row := r.baseRow(doc, i == 0)
			row.CUSSP = ref.CUSSP
			row.Afiliado = ref.Afiliado
			row.Observacion = obsFromTable(table)
			rows = append(rows, row)
		}
		return rows
	}

	// 4. Unresolved.
	row := r.baseRow(doc, true)
	row.CUSSP = extract.Sentinel
	row.Afiliado = extract.Sentinel
	row.Observacion = obsNoEncontrado
	return []OutputRow{row}
}

// baseRow carries the shared document-level fields into an output row.
func (r *Reconciler) baseRow(doc Document, first bool) OutputRow {
	monto := ""
	if first {
		monto = doc.Fields.Monto.String()
	}
	return OutputRow{
		Archivo:     doc.File,
		RUC:         doc.Fields.RUC.String(),
		RazonSocial: doc.Fields.RazonSocial.String(),
		Periodo:     doc.Fields.Periodo.String(),
		FechaPago:   doc.Fields.FechaPago.String(),
		NPlanilla:   doc.Fields.NPlanilla.String(),
		Monto:       monto,
	}
}
