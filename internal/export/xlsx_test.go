package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lector-pagos/planilla-reader/internal/extract"
	"github.com/lector-pagos/planilla-reader/internal/reconcile"
)

func sampleRows() []reconcile.OutputRow {
	return []reconcile.OutputRow{
		{
			Archivo:     "planilla_001.pdf",
			RUC:         "20512345678",
			RazonSocial: "TRANSPORTES ANDINOS S.A.C.",
			Periodo:     "201212",
			CUSSP:       "111111AAAAA1",
			Afiliado:    "QUISPE MAMANI, ROSA",
			FechaPago:   "15/01/2013",
			NPlanilla:   "123456",
			Monto:       "S/. 215.70",
			Observacion: "Validado",
		},
		{
			Archivo:     "planilla_001.pdf",
			RUC:         "20512345678",
			RazonSocial: "TRANSPORTES ANDINOS S.A.C.",
			Periodo:     "201212",
			CUSSP:       "222222BBBBB2",
			Afiliado:    "HUAMAN FLORES, PEDRO",
			FechaPago:   "15/01/2013",
			NPlanilla:   "123456",
			Monto:       "", // only the first row of a document carries the amount
		},
		{
			Archivo:     "planilla_002.pdf",
			RUC:         extract.Sentinel,
			RazonSocial: extract.Sentinel,
			Periodo:     extract.Sentinel,
			CUSSP:       extract.Sentinel,
			Afiliado:    extract.Sentinel,
			FechaPago:   extract.Sentinel,
			NPlanilla:   extract.Sentinel,
			Monto:       extract.Sentinel,
			Observacion: "No encontrado en el PDF ni en las bases locales",
		},
	}
}

func TestWriteRows_RoundTrip(t *testing.T) {
	want := sampleRows()

	data, err := WriteRows(want)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteRows_BlankMontoDistinctFromSentinel(t *testing.T) {
	data, err := WriteRows(sampleRows())
	require.NoError(t, err)

	got, err := ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "S/. 215.70", got[0].Monto)
	assert.Empty(t, got[1].Monto)
	assert.Equal(t, extract.Sentinel, got[2].Monto)
}

func TestWriteRows_WorkbookLayout(t *testing.T) {
	data, err := WriteRows(sampleRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "PLANTILLA PAGOS REDIRECCIONAMIENTO", title)

	for i, h := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		require.NoError(t, err)
		v, err := f.GetCellValue(SheetName, cell)
		require.NoError(t, err)
		assert.Equal(t, h, v)
	}

	first, err := f.GetCellValue(SheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "planilla_001.pdf", first)
}

func TestWriteRows_EmptyReport(t *testing.T) {
	data, err := WriteRows(nil)
	require.NoError(t, err)

	got, err := ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadRows_RejectsForeignWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(SheetName)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetName, "A2", "OTRA_COLUMNA"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err = ReadRows(&buf)
	assert.Error(t, err)
}
