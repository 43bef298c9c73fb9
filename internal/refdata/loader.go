package refdata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Source describes where one dataset can be loaded from. The local path is
// tried first because it is cheaper and more deterministic; the remote URL is
// the fallback.
type Source struct {
	LocalPath string
	RemoteURL string
}

// Loader reads reference datasets from XLSX files, local or remote.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewLoader creates a loader. The timeout bounds every remote fetch so a dead
// mirror degrades to "table unavailable" instead of hanging.
func NewLoader(timeout time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// LoadTable loads one dataset, local path first, remote URL second. Any
// failure degrades to an empty table so downstream lookups uniformly report
// not found; one table's failure never affects the other.
func (l *Loader) LoadTable(ctx context.Context, name string, src Source) *Table {
	if src.LocalPath != "" {
		if rows, err := l.loadLocal(src.LocalPath); err == nil {
			l.logger.Info("reference dataset loaded",
				zap.String("table", name),
				zap.String("source", "local"),
				zap.Int("rows", len(rows)))
			return NewTable(name, rows)
		} else if !os.IsNotExist(err) {
			l.logger.Warn("local reference dataset unreadable",
				zap.String("table", name),
				zap.String("path", src.LocalPath),
				zap.Error(err))
		}
	}

	if src.RemoteURL != "" {
		if rows, err := l.loadRemote(ctx, src.RemoteURL); err == nil {
			l.logger.Info("reference dataset loaded",
				zap.String("table", name),
				zap.String("source", "remote"),
				zap.Int("rows", len(rows)))
			return NewTable(name, rows)
		} else {
			l.logger.Warn("remote reference dataset unavailable",
				zap.String("table", name),
				zap.String("url", src.RemoteURL),
				zap.Error(err))
		}
	}

	l.logger.Warn("reference dataset unavailable from any source", zap.String("table", name))
	return emptyTable(name)
}

func (l *Loader) loadLocal(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseWorkbook(f)
}

func (l *Loader) loadRemote(ctx context.Context, url string) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseWorkbook(f)
}

// parseWorkbook reads the first sheet: a header row naming the DOCUMENTO,
// PERIODO, CUSSP and AFILIADO columns followed by data rows. Every value is
// coerced to a trimmed string; rows missing the composite key are dropped.
func parseWorkbook(f *excelize.File) ([]Row, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(cells) < 1 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	cols := map[string]int{}
	for i, h := range cells[0] {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{ColDocumento, ColPeriodo, ColCUSSP, ColAfiliado} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %s", required)
		}
	}

	cell := func(row []string, col string) string {
		i := cols[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, raw := range cells[1:] {
		r := Row{
			Documento: cell(raw, ColDocumento),
			Periodo:   cell(raw, ColPeriodo),
			CUSSP:     cell(raw, ColCUSSP),
			Afiliado:  cell(raw, ColAfiliado),
		}
		if r.Documento == "" || r.Periodo == "" {
			continue
		}
		rows = append(rows, r)
	}
	return rows, nil
}
