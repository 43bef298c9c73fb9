package refdata

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sources names both dataset locations.
type Sources struct {
	Redireccionamiento Source
	Presunta           Source
}

// Index holds both reference tables and consults them in fixed priority:
// REDIRECCIONAMIENTO first, PRESUNTA only when the primary yields nothing.
// It is built once, treated as immutable between reloads, and safe to share
// across concurrent document processing.
type Index struct {
	loader  *Loader
	sources Sources

	mu      sync.RWMutex
	primary *Table
	backup  *Table
}

// NewIndex loads both tables. A table that cannot be loaded from any source
// comes up empty rather than failing construction.
func NewIndex(ctx context.Context, loader *Loader, sources Sources) *Index {
	idx := &Index{loader: loader, sources: sources}
	idx.load(ctx)
	return idx
}

func (x *Index) load(ctx context.Context) {
	primary := x.loader.LoadTable(ctx, TableRedireccionamiento, x.sources.Redireccionamiento)
	backup := x.loader.LoadTable(ctx, TablePresunta, x.sources.Presunta)

	x.mu.Lock()
	x.primary = primary
	x.backup = backup
	x.mu.Unlock()
}

// Reload refreshes both tables from their sources without restarting the
// process. Lookups running concurrently keep seeing the previous tables until
// the swap.
func (x *Index) Reload(ctx context.Context) {
	x.load(ctx)
}

// Lookup returns the reference rows for (documento, periodo), optionally
// filtered by CUSSP, together with the name of the table that produced them.
// An empty result carries an empty table name.
func (x *Index) Lookup(documento, periodo, cussp string) ([]Row, string) {
	x.mu.RLock()
	primary, backup := x.primary, x.backup
	x.mu.RUnlock()

	if rows := primary.Lookup(documento, periodo, cussp); len(rows) > 0 {
		return rows, primary.Name()
	}
	if rows := backup.Lookup(documento, periodo, cussp); len(rows) > 0 {
		return rows, backup.Name()
	}
	return nil, ""
}

// Sizes returns the loaded row counts, primary then backup.
func (x *Index) Sizes() (int, int) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.primary.Len(), x.backup.Len()
}

// LogSummary records how much reference data is available.
func (x *Index) LogSummary(logger *zap.Logger) {
	p, b := x.Sizes()
	logger.Info("reference index ready",
		zap.Int("redireccionamiento_rows", p),
		zap.Int("presunta_rows", b))
}
