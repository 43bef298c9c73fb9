package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	fondoPattern = regexp.MustCompile(`(?ims)Total\s+Fondo\s+Pensiones\s+S/\.\s+([\d.]+)`)
	// Matched globally: planillas print a sub-total before the true total and
	// only the last occurrence is the one worth summing.
	retencionesPattern = regexp.MustCompile(`(?ims)Retenciones(?:\s+y)?\s+Retribuciones\s+S/\.\s+([\d.]+)`)
)

// TotalAmount computes the MONTO field: Total Fondo Pensiones plus the last
// Total Retenciones y Retribuciones, formatted as local currency. A zero sum
// is reported as not detected; a genuinely zero-amount planilla is therefore
// indistinguishable from a failed extraction, which mirrors the document
// family's semantics.
func (e *Extractor) TotalAmount(text string) Field {
	fondo := 0.0
	if m := fondoPattern.FindStringSubmatch(text); len(m) > 1 {
		fondo = e.parseAmount(m[1])
	}

	retenciones := 0.0
	if all := retencionesPattern.FindAllStringSubmatch(text, -1); len(all) > 0 {
		retenciones = e.parseAmount(all[len(all)-1][1])
	}

	total := fondo + retenciones
	if total > 0 {
		return Detected(fmt.Sprintf("S/. %.2f", total))
	}
	return NotDetected()
}

// parseAmount converts a matched monetary string to a float, stripping any
// whitespace the PDF layout leaked into the number. Malformed input degrades
// to 0.0 so a single broken amount never aborts the document.
func (e *Extractor) parseAmount(raw string) float64 {
	clean := strings.NewReplacer(" ", "", "\n", "").Replace(raw)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		e.logger.Warn("malformed monetary value", zap.String("raw", raw), zap.Error(err))
		return 0
	}
	return v
}
