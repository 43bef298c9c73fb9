package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlanilla = `DECLARACION SIN PAGO
Nombre o Razón Social: TRANSPORTES ANDINOS S.A.C. RUC: 20512345678
Periodo de Devengue: 2012-12
Número de Planilla: 458796
Fecha de Pago:
15/01/2013
Nro CUSPP Apellidos y Nombres
1 123456ABCDE7 PEREZ GOMEZ, JUAN S 01
Total Fondo Pensiones S/. 150.00
Sub-Total Retenciones y Retribuciones S/. 10.00
Total Retenciones y Retribuciones S/. 65.70
`

func TestExtract_SamplePlanilla(t *testing.T) {
	fs := NewExtractor(nil).Extract(samplePlanilla)

	assert.Equal(t, "20512345678", fs.RUC.String())
	assert.Equal(t, "TRANSPORTES ANDINOS S.A.C.", fs.RazonSocial.String())
	assert.Equal(t, "201212", fs.Periodo.String())
	assert.Equal(t, "15/01/2013", fs.FechaPago.String())
	assert.Equal(t, "458796", fs.NPlanilla.String())
	assert.Equal(t, "123456ABCDE7", fs.CUSSP.String())
	assert.Equal(t, "PEREZ GOMEZ, JUAN", fs.Afiliado.String())
	assert.Equal(t, "S/. 215.70", fs.Monto.String())
}

func TestExtractField_NoMatchReturnsSentinel(t *testing.T) {
	e := NewExtractor(nil)

	tests := []struct {
		name string
		text string
	}{
		{name: "empty_text", text: ""},
		{name: "unrelated_text", text: "nothing interesting here"},
		{name: "label_without_value", text: "RUC: pending"},
		{name: "sentinel_lookalike", text: "RUC: No detectado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := e.ExtractField(tt.text, Rule{Name: FieldRUC, Patterns: []string{`RUC[:\s]+(\d{11})`}})
			assert.False(t, field.Found)
			assert.Equal(t, Sentinel, field.String())
		})
	}
}

func TestExtractField_MalformedPatternDegrades(t *testing.T) {
	e := NewExtractor(nil)

	field := e.ExtractField("RUC: 20512345678", Rule{
		Name:     FieldRUC,
		Patterns: []string{`RUC[:\s+(\d{11})`}, // unbalanced class: does not compile
	})
	assert.False(t, field.Found)
	assert.Equal(t, Sentinel, field.String())
}

func TestExtractField_FallbackOrder(t *testing.T) {
	e := NewExtractor(nil)
	rule := Rule{
		Name: FieldCUSSP,
		Patterns: []string{
			`^\s*1\s+([0-9]{6}[A-Z]{5}\d)`,
			`CUSPP[\s\S]*?(\d{6}[A-Z]{5}\d)`,
		},
	}

	t.Run("primary_wins", func(t *testing.T) {
		text := "1 111111AAAAA1 FOO\nCUSPP 222222BBBBB2"
		field := e.ExtractField(text, rule)
		require.True(t, field.Found)
		assert.Equal(t, "111111AAAAA1", field.Value)
	})

	t.Run("secondary_only_on_primary_miss", func(t *testing.T) {
		text := "Detalle CUSPP\n222222BBBBB2 ALGUIEN"
		field := e.ExtractField(text, rule)
		require.True(t, field.Found)
		assert.Equal(t, "222222BBBBB2", field.Value)
	})

	t.Run("no_merging", func(t *testing.T) {
		field := e.ExtractField("sin tabla", rule)
		assert.False(t, field.Found)
	})
}

func TestCleanPeriod(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "strips_hyphen", input: "2012-12", want: "201212"},
		{name: "strips_spaces", input: "2012 - 12", want: "201212"},
		{name: "sentinel_untouched", input: Sentinel, want: Sentinel},
		{name: "empty_becomes_sentinel", input: "", want: Sentinel},
		{name: "idempotent", input: "201212", want: "201212"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanPeriod(tt.input)
			assert.Equal(t, tt.want, got)
			// Normalizing an already-normalized value returns it unchanged
			assert.Equal(t, got, CleanPeriod(got))
		})
	}
}

func TestField_SentinelLookalikeIsDistinguishable(t *testing.T) {
	real := Detected(Sentinel) // extracted text that happens to read like the sentinel
	missing := NotDetected()

	assert.Equal(t, real.String(), missing.String())
	assert.True(t, real.Found)
	assert.False(t, missing.Found)
}

func TestExtract_EveryFieldAlwaysPresent(t *testing.T) {
	fs := NewExtractor(nil).Extract("completely unrelated text")

	for name, f := range map[string]Field{
		FieldRUC:         fs.RUC,
		FieldRazonSocial: fs.RazonSocial,
		FieldPeriodo:     fs.Periodo,
		FieldCUSSP:       fs.CUSSP,
		FieldAfiliado:    fs.Afiliado,
		FieldFechaPago:   fs.FechaPago,
		FieldNPlanilla:   fs.NPlanilla,
		FieldMonto:       fs.Monto,
	} {
		assert.Equal(t, Sentinel, f.String(), "field %s", name)
	}
}

func TestExtract_FechaPagoToleratesLineBreak(t *testing.T) {
	fs := NewExtractor(nil).Extract("Fecha de Pago:\n5-1-2013")
	assert.Equal(t, "5-1-2013", fs.FechaPago.String())
}

func TestExtract_RazonSocialStopsAtRUC(t *testing.T) {
	fs := NewExtractor(nil).Extract("Razón Social: MINERA DEL SUR S.A. RUC: 20487654321")
	assert.Equal(t, "MINERA DEL SUR S.A.", fs.RazonSocial.String())
	assert.False(t, strings.Contains(fs.RazonSocial.Value, "RUC"))
}
