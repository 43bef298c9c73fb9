// Package refdata loads and indexes the offline affiliate reference datasets
// used to recover identity fields when a planilla does not carry its own
// affiliate table.
package refdata

import (
	"strings"
)

// Dataset table names, in consultation priority order.
const (
	TableRedireccionamiento = "REDIRECCIONAMIENTO"
	TablePresunta           = "PRESUNTA"
)

// Reference dataset column headers.
const (
	ColDocumento = "DOCUMENTO"
	ColPeriodo   = "PERIODO"
	ColCUSSP     = "CUSSP"
	ColAfiliado  = "AFILIADO"
)

// Row is one reference dataset entry. All fields are trimmed strings
// regardless of how the spreadsheet typed them, so key matching is uniform.
type Row struct {
	Documento string
	Periodo   string
	CUSSP     string
	Afiliado  string
}

// Key returns the composite lookup key shared by every row of one employer
// and period.
func (r Row) Key() string {
	return compositeKey(r.Documento, r.Periodo)
}

func compositeKey(documento, periodo string) string {
	return strings.TrimSpace(documento) + "|" + strings.TrimSpace(periodo)
}

// Table is one loaded dataset with a composite-key index. A Table is
// immutable after construction and safe for concurrent readers.
type Table struct {
	name  string
	rows  []Row
	index map[string][]Row
}

// NewTable builds a table and its index from loaded rows.
func NewTable(name string, rows []Row) *Table {
	index := make(map[string][]Row, len(rows))
	for _, r := range rows {
		k := r.Key()
		index[k] = append(index[k], r)
	}
	return &Table{name: name, rows: rows, index: index}
}

// emptyTable stands in for a dataset that could not be loaded; every lookup
// on it reports not found.
func emptyTable(name string) *Table {
	return NewTable(name, nil)
}

// Name returns the dataset name.
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of loaded rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Lookup returns the rows matching (documento, periodo), optionally further
// restricted to an exact CUSSP. The result is empty, never an error, when
// nothing matches.
func (t *Table) Lookup(documento, periodo, cussp string) []Row {
	matches := t.index[compositeKey(documento, periodo)]
	if cussp == "" {
		return matches
	}

	cussp = strings.TrimSpace(cussp)
	var filtered []Row
	for _, r := range matches {
		if r.CUSSP == cussp {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
