package storage

import (
	"context"
	"database/sql"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// FileExports is one file's exported symbol names, grouped for an
// architecture-level public-API summary.
type FileExports struct {
	FilePath string
	Exports  []types.Export
}

// ListExports returns every export row, grouped by declaring file in path
// order. An empty directoryPrefix returns the whole repository.
func (s *Store) ListExports(ctx context.Context, directoryPrefix string) ([]FileExports, error) {
	query := `SELECT file_path, name, kind, is_re_export, re_export_source FROM exports WHERE 1=1`
	var args []any
	if directoryPrefix != "" {
		query += ` AND file_path LIKE ?`
		args = append(args, directoryPrefix+"%")
	}
	query += ` ORDER BY file_path, name`

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_exports", err)
	}
	defer rows.Close()

	var order []string
	byFile := make(map[string]*FileExports)
	for rows.Next() {
		var filePath, name string
		var kind, reExportSource sql.NullString
		var isReExport int
		if err := rows.Scan(&filePath, &name, &kind, &isReExport, &reExportSource); err != nil {
			return nil, lzerrors.NewStorageError("list_exports", err)
		}
		group, ok := byFile[filePath]
		if !ok {
			group = &FileExports{FilePath: filePath}
			byFile[filePath] = group
			order = append(order, filePath)
		}
		group.Exports = append(group.Exports, types.Export{
			Name:           name,
			Kind:           types.SymbolKind(kind.String),
			IsReExport:     isReExport != 0,
			ReExportSource: reExportSource.String,
		})
	}

	out := make([]FileExports, 0, len(order))
	for _, f := range order {
		out = append(out, *byFile[f])
	}
	return out, nil
}
