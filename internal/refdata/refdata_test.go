package refdata

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	header := []any{"DOCUMENTO", "PERIODO", "CUSSP", "AFILIADO"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func writeWorkbookFile(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, writeWorkbook(t, rows), 0o644))
	return path
}

func TestLoadTable_Local(t *testing.T) {
	path := writeWorkbookFile(t, t.TempDir(), "redi.xlsx", [][]any{
		{"20512345678", "201212", "111111AAAAA1", "QUISPE MAMANI, ROSA"},
		{" 20512345678 ", " 201212 ", "222222BBBBB2", "  HUAMAN FLORES, PEDRO  "},
	})

	table := NewLoader(time.Second, nil).LoadTable(context.Background(),
		TableRedireccionamiento, Source{LocalPath: path})

	require.Equal(t, 2, table.Len())

	rows := table.Lookup("20512345678", "201212", "")
	require.Len(t, rows, 2)
	assert.Equal(t, "HUAMAN FLORES, PEDRO", rows[1].Afiliado)
}

func TestLoadTable_RemoteFallback(t *testing.T) {
	payload := writeWorkbook(t, [][]any{
		{"20512345678", "201301", "333333CCCCC3", "CASTILLO RIOS, ANA"},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	table := NewLoader(time.Second, nil).LoadTable(context.Background(), TablePresunta, Source{
		LocalPath: filepath.Join(t.TempDir(), "missing.xlsx"),
		RemoteURL: srv.URL,
	})

	require.Equal(t, 1, table.Len())
	rows := table.Lookup("20512345678", "201301", "")
	require.Len(t, rows, 1)
	assert.Equal(t, "CASTILLO RIOS, ANA", rows[0].Afiliado)
}

func TestLoadTable_AllSourcesFailDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	table := NewLoader(time.Second, nil).LoadTable(context.Background(), TablePresunta, Source{
		LocalPath: filepath.Join(t.TempDir(), "missing.xlsx"),
		RemoteURL: srv.URL,
	})

	assert.Zero(t, table.Len())
	assert.Empty(t, table.Lookup("20512345678", "201212", ""))
}

func TestLoadTable_MalformedWorkbookDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a workbook"), 0o644))

	table := NewLoader(time.Second, nil).LoadTable(context.Background(),
		TableRedireccionamiento, Source{LocalPath: path})
	assert.Zero(t, table.Len())
}

func TestTable_LookupWithCUSSPFilter(t *testing.T) {
	table := NewTable(TableRedireccionamiento, []Row{
		{Documento: "20512345678", Periodo: "201212", CUSSP: "111111AAAAA1", Afiliado: "ROSA"},
		{Documento: "20512345678", Periodo: "201212", CUSSP: "222222BBBBB2", Afiliado: "PEDRO"},
	})

	rows := table.Lookup("20512345678", "201212", "222222BBBBB2")
	require.Len(t, rows, 1)
	assert.Equal(t, "PEDRO", rows[0].Afiliado)

	assert.Empty(t, table.Lookup("20512345678", "201212", "999999ZZZZZ9"))
}

func TestIndex_PriorityAndFallback(t *testing.T) {
	dir := t.TempDir()
	rediPath := writeWorkbookFile(t, dir, "redi.xlsx", [][]any{
		{"20512345678", "201212", "111111AAAAA1", "EN AMBAS (REDI)"},
	})
	presPath := writeWorkbookFile(t, dir, "pres.xlsx", [][]any{
		{"20512345678", "201212", "111111AAAAA1", "EN AMBAS (PRES)"},
		{"20698765432", "201301", "444444DDDDD4", "SOLO PRESUNTA"},
	})

	index := NewIndex(context.Background(), NewLoader(time.Second, nil), Sources{
		Redireccionamiento: Source{LocalPath: rediPath},
		Presunta:           Source{LocalPath: presPath},
	})

	t.Run("primary_wins_when_both_match", func(t *testing.T) {
		rows, origin := index.Lookup("20512345678", "201212", "")
		require.Len(t, rows, 1)
		assert.Equal(t, TableRedireccionamiento, origin)
		assert.Equal(t, "EN AMBAS (REDI)", rows[0].Afiliado)
	})

	t.Run("fallback_when_primary_misses", func(t *testing.T) {
		rows, origin := index.Lookup("20698765432", "201301", "")
		require.Len(t, rows, 1)
		assert.Equal(t, TablePresunta, origin)
	})

	t.Run("absent_key_is_empty_not_error", func(t *testing.T) {
		rows, origin := index.Lookup("00000000000", "190001", "")
		assert.Empty(t, rows)
		assert.Empty(t, origin)
	})
}

func TestIndex_Reload(t *testing.T) {
	dir := t.TempDir()
	rediPath := writeWorkbookFile(t, dir, "redi.xlsx", [][]any{
		{"20512345678", "201212", "111111AAAAA1", "ANTES"},
	})

	index := NewIndex(context.Background(), NewLoader(time.Second, nil), Sources{
		Redireccionamiento: Source{LocalPath: rediPath},
	})

	rows, _ := index.Lookup("20512345678", "201212", "")
	require.Len(t, rows, 1)

	writeWorkbookFile(t, dir, "redi.xlsx", [][]any{
		{"20512345678", "201212", "111111AAAAA1", "DESPUES"},
		{"20512345678", "201212", "222222BBBBB2", "NUEVO"},
	})
	index.Reload(context.Background())

	rows, _ = index.Lookup("20512345678", "201212", "")
	require.Len(t, rows, 2)
	assert.Equal(t, "DESPUES", rows[0].Afiliado)
}
