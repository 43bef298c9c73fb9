package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Sentinel is the user-visible marker for a field that could not be extracted.
// It is rendered into the output table; internally absence is tracked by
// Field.Found so real text reading "No detectado" can never be mistaken for it.
const Sentinel = "No detectado"

// Field is one extracted value. The zero value is "not detected".
type Field struct {
	Value string
	Found bool
}

// Detected wraps a real extracted value.
func Detected(v string) Field {
	return Field{Value: v, Found: true}
}

// NotDetected returns the absent field value.
func NotDetected() Field {
	return Field{}
}

// String renders the field the way it appears in the output table.
func (f Field) String() string {
	if !f.Found {
		return Sentinel
	}
	return f.Value
}

// Field names as they appear in the output schema.
const (
	FieldRUC         = "RUC"
	FieldRazonSocial = "RAZON_SOCIAL"
	FieldPeriodo     = "PERIODO"
	FieldCUSSP       = "CUSSP"
	FieldAfiliado    = "AFILIADO"
	FieldFechaPago   = "FECHA_PAGO"
	FieldNPlanilla   = "N_PLANILLA"
	FieldMonto       = "MONTO"
)

// Rule describes the extraction grammar for one field: an ordered list of
// patterns tried until the first match, plus an optional post-processing step.
// Patterns are compiled case-insensitive, multiline and dot-matches-newline.
type Rule struct {
	Name     string
	Patterns []string
	Post     func(string) string
}

// fieldRules is the extraction grammar. Order within a rule matters: the
// secondary pattern runs only when the primary yields nothing.
var fieldRules = []Rule{
	{
		Name:     FieldRUC,
		Patterns: []string{`RUC[:\s]+(\d{11})`},
	},
	{
		Name:     FieldRazonSocial,
		Patterns: []string{`(?:Nombre\s+o\s+)?Raz[oó]n\s+Social[:\s]+([^\n]+?)(?:\s*RUC|$)`},
	},
	{
		Name:     FieldPeriodo,
		Patterns: []string{`Periodo\s+(?:de\s+Devengue)?[:\s]+(\d{4}-\d{2})`},
		Post:     CleanPeriod,
	},
	{
		Name: FieldCUSSP,
		Patterns: []string{
			// Primary: first row of the affiliate table, anchored on the Nro column.
			`^\s*1\s+([0-9]{6}[A-Z]{5}\d)`,
			// Secondary: any CUSPP-labelled occurrence.
			`CUSPP[\s\S]*?(\d{6}[A-Z]{5}\d)`,
		},
	},
	{
		Name: FieldAfiliado,
		Patterns: []string{
			// Primary: name following the CUSSP in the affiliate table, stopping
			// before the single-letter flag column.
			`[0-9]{6}[A-Z]{5}\d\s+([A-ZÁÉÍÓÚÑ\s,\.]+?)\s+[SN]\s`,
			// Secondary: declared affiliate count, kept from the source layout.
			`Nro\.?\s+de\s+Afiliados?\s+Declarados[:\s]*\n?\s*(\d+)`,
		},
	},
	{
		Name:     FieldFechaPago,
		Patterns: []string{`Fecha\s+de\s+Pago[:\s]*\n?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`},
	},
	{
		Name:     FieldNPlanilla,
		Patterns: []string{`(?:Número\s+de\s+)?Planilla[:\s]+(\d+)`},
	},
}

// FieldSet holds every document-level field. Every recognized field always has
// a value: a real extraction or the not-detected zero value, never absent.
type FieldSet struct {
	RUC         Field
	RazonSocial Field
	Periodo     Field
	CUSSP       Field
	Afiliado    Field
	FechaPago   Field
	NPlanilla   Field
	Monto       Field
}

// Extractor applies the field grammar to acquired document text.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a field extractor. A nil logger disables logging.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract runs every field rule plus the monetary aggregation over the text.
func (e *Extractor) Extract(text string) FieldSet {
	var fs FieldSet
	for _, rule := range fieldRules {
		value := e.ExtractField(text, rule)
		switch rule.Name {
		case FieldRUC:
			fs.RUC = value
		case FieldRazonSocial:
			fs.RazonSocial = value
		case FieldPeriodo:
			fs.Periodo = value
		case FieldCUSSP:
			fs.CUSSP = value
		case FieldAfiliado:
			fs.Afiliado = value
		case FieldFechaPago:
			fs.FechaPago = value
		case FieldNPlanilla:
			fs.NPlanilla = value
		}
	}
	fs.Monto = e.TotalAmount(text)
	return fs
}

// ExtractField applies one rule: patterns in order, first capture wins.
// Pattern misses are expected and silent; a malformed pattern is unexpected
// and logged, but both degrade to not-detected.
func (e *Extractor) ExtractField(text string, rule Rule) Field {
	for _, pattern := range rule.Patterns {
		value, ok := e.matchFirst(text, rule.Name, pattern)
		if !ok {
			continue
		}
		if rule.Post != nil {
			value = rule.Post(value)
		}
		return Detected(value)
	}
	return NotDetected()
}

// matchFirst returns the trimmed first capture group of pattern in text.
func (e *Extractor) matchFirst(text, field, pattern string) (string, bool) {
	re, err := regexp.Compile(`(?ims)` + pattern)
	if err != nil {
		e.logger.Warn("malformed field pattern",
			zap.String("field", field),
			zap.String("pattern", pattern),
			zap.Error(err))
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 {
		e.logger.Debug("field pattern miss", zap.String("field", field))
		return "", false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return "", false
	}
	return value, true
}

// CleanPeriod normalizes a period token by stripping hyphens and spaces:
// "2012-12" becomes "201212". The sentinel passes through untouched and the
// operation is idempotent.
func CleanPeriod(periodo string) string {
	if periodo == "" || periodo == Sentinel {
		return Sentinel
	}
	periodo = strings.ReplaceAll(periodo, "-", "")
	return strings.ReplaceAll(periodo, " ", "")
}
