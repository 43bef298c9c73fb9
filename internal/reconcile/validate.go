package reconcile

import (
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"
)

// ValidationThreshold separates a confirmed name from a mismatch.
const ValidationThreshold = 0.95

// Validation is the result of cross-checking a document-supplied identity
// against the reference datasets. It annotates the document's own values and
// never replaces them.
type Validation struct {
	Found       bool
	Origin      string // table that produced the reference row
	CUSSP       string // reference CUSSP
	Afiliado    string // reference name
	Similarity  float64
	Observation string
}

// Validate looks up the reference row for (documento, periodo, cussp) and
// scores the document's name against the reference name. At most one result:
// the first matching reference row wins.
func (r *Reconciler) Validate(documento, periodo, cussp, afiliado string) Validation {
	rows, table := r.index.Lookup(documento, periodo, cussp)
	if len(rows) == 0 {
		return Validation{Observation: "No encontrado en bases locales"}
	}

	ref := rows[0]
	similarity := NameSimilarity(afiliado, ref.Afiliado)

	v := Validation{
		Found:      true,
		Origin:     table,
		CUSSP:      ref.CUSSP,
		Afiliado:   ref.Afiliado,
		Similarity: similarity,
	}
	if similarity < ValidationThreshold {
		v.Observation = obsNameMismatch(ref.Afiliado, afiliado, similarity)
	} else {
		v.Observation = obsValidado
	}

	r.logger.Debug("identity validated against reference data",
		zap.String("documento", documento),
		zap.String("cussp", cussp),
		zap.String("table", table),
		zap.Float64("similarity", similarity))
	return v
}

// NameSimilarity is the case-insensitive similarity ratio between two names,
// 0.0 to 1.0. Either side empty scores zero.
func NameSimilarity(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(strings.ToUpper(a), strings.ToUpper(b), nil)
}
