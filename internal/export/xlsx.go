// Package export renders reconciled output rows into the payment template
// workbook and reads them back.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lector-pagos/planilla-reader/internal/reconcile"
)

const (
	SheetName  = "Datos"
	titleText  = "PLANTILLA PAGOS REDIRECCIONAMIENTO"
	titleRow   = 1
	headerRow  = 2
	firstData  = 3
	maxColWide = 50
)

// Headers is the fixed output column order.
var Headers = []string{
	"Archivo",
	"RUC",
	"RAZON_SOCIAL",
	"PERIODO",
	"CUSSP",
	"AFILIADO",
	"FECHA_PAGO",
	"N_PLANILLA",
	"MONTO",
	"OBSERVACION",
}

func rowValues(r reconcile.OutputRow) []string {
	return []string{
		r.Archivo,
		r.RUC,
		r.RazonSocial,
		r.Periodo,
		r.CUSSP,
		r.Afiliado,
		r.FechaPago,
		r.NPlanilla,
		r.Monto,
		r.Observacion,
	}
}

// WriteRows builds the styled workbook and returns its bytes.
func WriteRows(rows []reconcile.OutputRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	if err := writeTitle(f); err != nil {
		return nil, err
	}
	if err := writeHeaders(f); err != nil {
		return nil, err
	}

	widths := make([]int, len(Headers))
	for i, h := range Headers {
		widths[i] = len(h)
	}

	for i, r := range rows {
		values := rowValues(r)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, firstData+i)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
			if len(v) > widths[col] {
				widths[col] = len(v)
			}
		}
	}

	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if w+2 > maxColWide {
			w = maxColWide - 2
		}
		if err := f.SetColWidth(SheetName, name, name, float64(w+2)); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTitle(f *excelize.File) error {
	last, err := excelize.ColumnNumberToName(len(Headers))
	if err != nil {
		return err
	}
	if err := f.MergeCell(SheetName, "A1", last+"1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	if err := f.SetCellValue(SheetName, "A1", titleText); err != nil {
		return fmt.Errorf("write title: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last+"1", style); err != nil {
		return fmt.Errorf("apply title style: %w", err)
	}
	return f.SetRowHeight(SheetName, titleRow, 25)
}

func writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style header %s: %w", h, err)
		}
	}
	return nil
}

// ReadRows parses a workbook produced by WriteRows. Blank MONTO cells stay
// blank and sentinel values stay sentinel, so a round trip is lossless.
func ReadRows(r io.Reader) ([]reconcile.OutputRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	cells, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(cells) < headerRow {
		return nil, fmt.Errorf("workbook missing header row")
	}

	for i, h := range Headers {
		if i >= len(cells[headerRow-1]) || cells[headerRow-1][i] != h {
			return nil, fmt.Errorf("unexpected column %d: want %s", i+1, h)
		}
	}

	at := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var rows []reconcile.OutputRow
	for _, raw := range cells[headerRow:] {
		rows = append(rows, reconcile.OutputRow{
			Archivo:     at(raw, 0),
			RUC:         at(raw, 1),
			RazonSocial: at(raw, 2),
			Periodo:     at(raw, 3),
			CUSSP:       at(raw, 4),
			Afiliado:    at(raw, 5),
			FechaPago:   at(raw, 6),
			NPlanilla:   at(raw, 7),
			Monto:       at(raw, 8),
			Observacion: at(raw, 9),
		})
	}
	return rows, nil
}
