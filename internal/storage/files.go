package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// PutFile atomically replaces every row owned by idx.File.Path: the file
// row itself, and — by cascading delete — every symbol, import, export,
// reference, call edge and type relationship produced from it. Per
// spec.md §4.5's invariant, the aggregate of dependent rows after commit
// equals exactly what the last successful parse emitted.
func (s *Store) PutFile(ctx context.Context, idx types.FileIndex) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return lzerrors.NewStorageError("put_file", err)
	}
	defer tx.Rollback()

	// fts_symbols is a virtual table; ON DELETE CASCADE on symbols.id does
	// not reach it, so its rows for this file's old symbols must be
	// dropped explicitly before the cascading file delete removes the
	// symbols themselves.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM fts_symbols WHERE symbol_id IN (SELECT id FROM symbols WHERE file_path = ?)
	`, idx.File.Path); err != nil {
		return lzerrors.NewStorageError("put_file", fmt.Errorf("clear fts: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, idx.File.Path); err != nil {
		return lzerrors.NewStorageError("put_file", fmt.Errorf("clear old file: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO files (path, language, checksum, modified_at, line_count, byte_size, parse_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, idx.File.Path, string(idx.File.Language), idx.File.Checksum,
		idx.File.ModifiedAt.UTC().Format(time.RFC3339), idx.File.LineCount, idx.File.ByteSize,
		string(idx.File.ParseStatus)); err != nil {
		return lzerrors.NewStorageError("put_file", fmt.Errorf("insert file: %w", err))
	}

	for _, w := range idx.File.Warnings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO file_warnings (file_path, code, message, line) VALUES (?, ?, ?, ?)
		`, idx.File.Path, w.Code, w.Message, w.Line); err != nil {
			return lzerrors.NewStorageError("put_file", fmt.Errorf("insert warning: %w", err))
		}
	}

	if err := insertSymbols(ctx, tx, idx.Symbols); err != nil {
		return err
	}
	if err := insertImports(ctx, tx, idx.File.Path, idx.Imports); err != nil {
		return err
	}
	if err := insertExports(ctx, tx, idx.File.Path, idx.Exports); err != nil {
		return err
	}
	if err := insertReferences(ctx, tx, idx.References); err != nil {
		return err
	}
	if err := insertCallEdges(ctx, tx, idx.File.Path, idx.Calls); err != nil {
		return err
	}
	if err := insertTypeRelationships(ctx, tx, idx.File.Path, idx.TypeRels); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return lzerrors.NewStorageError("put_file", err)
	}
	return nil
}

// RemoveFile deletes a file row and, by cascade, everything it owns. This
// is the `removeFile` contract spec.md §4.6 describes as a
// "putFile(null)-equivalent" operation.
func (s *Store) RemoveFile(ctx context.Context, path string) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return lzerrors.NewStorageError("remove_file", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM fts_symbols WHERE symbol_id IN (SELECT id FROM symbols WHERE file_path = ?)
	`, path); err != nil {
		return lzerrors.NewStorageError("remove_file", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return lzerrors.NewStorageError("remove_file", err)
	}
	if err := tx.Commit(); err != nil {
		return lzerrors.NewStorageError("remove_file", err)
	}
	return nil
}

func insertSymbols(ctx context.Context, tx *sql.Tx, symbols []types.AnySymbol) error {
	for _, sym := range symbols {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO symbols (
				id, fqn, file_path, language, kind, name, local_name, parent_class,
				start_line, end_line, start_column, end_column, signature, return_type,
				extends, aliased_type, declared_type, exported, async, generator, static,
				abstract, visibility, callback_ctx, doc_description, doc_returns, source_text
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, string(sym.ID), sym.FQN, sym.File, string(sym.Language), string(sym.Kind), sym.Name,
			nullableString(sym.LocalName), nullableString(sym.ParentClass),
			sym.Location.StartLine, sym.Location.EndLine, sym.Location.StartColumn, sym.Location.EndColumn,
			nullableString(sym.Signature), nullableString(sym.ReturnType),
			nullableString(sym.Extends), nullableString(sym.AliasedType), nullableString(sym.DeclaredType),
			boolToInt(sym.Exported), boolToInt(sym.Async), boolToInt(sym.Generator), boolToInt(sym.Static),
			boolToInt(sym.Abstract), nullableString(string(sym.Visibility)), nullableString(sym.CallbackCtx),
			nullableString(sym.Documentation.Description), nullableString(sym.Documentation.Returns),
			nullableString(sym.SourceText)); err != nil {
			return lzerrors.NewStorageError("put_file", fmt.Errorf("insert symbol %s: %w", sym.ID, err))
		}

		for _, impl := range sym.Implements {
			if _, err := tx.ExecContext(ctx, `INSERT INTO symbol_implements (symbol_id, name) VALUES (?, ?)`, string(sym.ID), impl); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}
		for i, tp := range sym.TypeParameters {
			if _, err := tx.ExecContext(ctx, `INSERT INTO symbol_type_params (symbol_id, position, name) VALUES (?, ?, ?)`, string(sym.ID), i, tp); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}
		for name, desc := range sym.Documentation.Params {
			if _, err := tx.ExecContext(ctx, `INSERT INTO doc_params (symbol_id, name, description) VALUES (?, ?, ?)`, string(sym.ID), name, desc); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}
		for _, th := range sym.Documentation.Throws {
			if _, err := tx.ExecContext(ctx, `INSERT INTO doc_throws (symbol_id, description) VALUES (?, ?)`, string(sym.ID), th); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}
		for i, p := range sym.Parameters {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO function_params (symbol_id, position, name, type, default_value, optional, rest)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, string(sym.ID), i, p.Name, nullableString(p.Type), nullableString(p.Default),
				boolToInt(p.Optional), boolToInt(p.Rest)); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}

		if sym.Kind == types.KindFunction || sym.Kind == types.KindMethod || sym.Kind == types.KindConstructor || sym.Kind == types.KindCallback {
			var bases []string
			for _, p := range sym.Parameters {
				bases = append(bases, baseTypeOf(p.Type))
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO symbol_type_info (symbol_id, return_base, return_raw, param_bases, is_async)
				VALUES (?, ?, ?, ?, ?)
			`, string(sym.ID), nullableString(baseTypeOf(sym.ReturnType)), nullableString(sym.ReturnType),
				nullableString(strings.Join(bases, ",")), boolToInt(sym.Async)); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}

		if sym.Name != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO fts_symbols (symbol_id, name, signature, doc_description) VALUES (?, ?, ?, ?)
			`, string(sym.ID), sym.Name, sym.Signature, sym.Documentation.Description); err != nil {
				return lzerrors.NewStorageError("put_file", fmt.Errorf("insert fts: %w", err))
			}
		}
	}
	return nil
}

// baseTypeOf strips generic arguments and array/optional markers down to the
// head type name, the same normalization internal/typenorm applies, kept
// duplicated here (stdlib string ops only) so this SQL pre-filter col can
// be populated without importing typenorm into the hot insert path.
func baseTypeOf(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "[]")
	raw = strings.TrimSuffix(raw, "?")
	if i := strings.IndexAny(raw, "<["); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func insertImports(ctx context.Context, tx *sql.Tx, path string, imports []types.Import) error {
	for _, imp := range imports {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO imports (file_path, source, is_type_only, resolved_path, is_external, is_builtin)
			VALUES (?, ?, ?, ?, ?, ?)
		`, path, imp.Source, boolToInt(imp.IsTypeOnly), nullableString(imp.ResolvedPath),
			boolToInt(imp.IsExternal), boolToInt(imp.IsBuiltIn))
		if err != nil {
			return lzerrors.NewStorageError("put_file", fmt.Errorf("insert import: %w", err))
		}
		importID, err := res.LastInsertId()
		if err != nil {
			return lzerrors.NewStorageError("put_file", err)
		}
		for _, spec := range imp.Specifiers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO import_specifiers (import_id, name, alias, is_default, is_namespace)
				VALUES (?, ?, ?, ?, ?)
			`, importID, spec.Name, nullableString(spec.Alias), boolToInt(spec.IsDefault), boolToInt(spec.IsNamespace)); err != nil {
				return lzerrors.NewStorageError("put_file", err)
			}
		}
	}
	return nil
}

func insertExports(ctx context.Context, tx *sql.Tx, path string, exports []types.Export) error {
	for _, exp := range exports {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exports (file_path, name, kind, is_re_export, re_export_source)
			VALUES (?, ?, ?, ?, ?)
		`, path, exp.Name, nullableString(string(exp.Kind)), boolToInt(exp.IsReExport), nullableString(exp.ReExportSource)); err != nil {
			return lzerrors.NewStorageError("put_file", err)
		}
	}
	return nil
}

func insertReferences(ctx context.Context, tx *sql.Tx, refs []types.Reference) error {
	for _, r := range refs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO symbol_references (
				symbol_id, symbol_name, referencing_file, referencing_symbol_id,
				referencing_symbol_name, line, col, context, kind
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, nullableString(string(r.SymbolID)), r.SymbolName, r.ReferencingFile,
			nullableString(string(r.ReferencingSymbolID)), nullableString(r.ReferencingSymbolName),
			r.Line, r.Column, nullableString(r.Context), string(r.Kind)); err != nil {
			return lzerrors.NewStorageError("put_file", fmt.Errorf("insert reference: %w", err))
		}
	}
	return nil
}

func insertCallEdges(ctx context.Context, tx *sql.Tx, path string, edges []types.CallEdge) error {
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO call_edges (
				file_path, caller_symbol_id, caller_name, callee_symbol_id, callee_name,
				call_count, is_async, is_conditional
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, path, nullableString(string(e.CallerSymbolID)), e.CallerName,
			nullableString(string(e.CalleeSymbolID)), e.CalleeName,
			e.CallCount, boolToInt(e.IsAsync), boolToInt(e.IsConditional)); err != nil {
			return lzerrors.NewStorageError("put_file", fmt.Errorf("insert call edge: %w", err))
		}
	}
	return nil
}

func insertTypeRelationships(ctx context.Context, tx *sql.Tx, path string, rels []types.TypeRelationship) error {
	for _, r := range rels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO type_relationships (file_path, source_symbol_id, source_name, target_symbol_id, target_name, kind)
			VALUES (?, ?, ?, ?, ?, ?)
		`, path, nullableString(string(r.SourceSymbolID)), r.SourceName,
			nullableString(string(r.TargetSymbolID)), r.TargetName, string(r.Kind)); err != nil {
			return lzerrors.NewStorageError("put_file", fmt.Errorf("insert type relationship: %w", err))
		}
	}
	return nil
}

// GetFile returns the file row plus its warnings, or ok=false if absent.
func (s *Store) GetFile(ctx context.Context, path string) (*types.FileEntry, bool, error) {
	var entry types.FileEntry
	var modifiedAt string
	var lang, status string

	err := s.readDB.QueryRowContext(ctx, `
		SELECT path, language, checksum, modified_at, line_count, byte_size, parse_status
		FROM files WHERE path = ?
	`, path).Scan(&entry.Path, &lang, &entry.Checksum, &modifiedAt, &entry.LineCount, &entry.ByteSize, &status)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, lzerrors.NewStorageError("get_file", err)
	}
	entry.Language = types.Language(lang)
	entry.ParseStatus = types.ParseStatus(status)
	entry.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)

	rows, err := s.readDB.QueryContext(ctx, `SELECT code, message, line FROM file_warnings WHERE file_path = ?`, path)
	if err != nil {
		return nil, false, lzerrors.NewStorageError("get_file", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w types.ParseWarning
		if err := rows.Scan(&w.Code, &w.Message, &w.Line); err != nil {
			return nil, false, lzerrors.NewStorageError("get_file", err)
		}
		entry.Warnings = append(entry.Warnings, w)
	}
	return &entry, true, nil
}

// FileFilter narrows ListFiles by directory prefix and/or language.
type FileFilter struct {
	DirectoryPrefix string
	Language        types.Language
}

// ListFiles returns file rows matching filter, ordered by path.
func (s *Store) ListFiles(ctx context.Context, filter FileFilter) ([]types.FileEntry, error) {
	query := `SELECT path, language, checksum, modified_at, line_count, byte_size, parse_status FROM files WHERE 1=1`
	var args []any
	if filter.DirectoryPrefix != "" {
		query += ` AND path LIKE ?`
		args = append(args, filter.DirectoryPrefix+"%")
	}
	if filter.Language != "" {
		query += ` AND language = ?`
		args = append(args, string(filter.Language))
	}
	query += ` ORDER BY path`

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_files", err)
	}
	defer rows.Close()

	var out []types.FileEntry
	for rows.Next() {
		var entry types.FileEntry
		var modifiedAt, lang, status string
		if err := rows.Scan(&entry.Path, &lang, &entry.Checksum, &modifiedAt, &entry.LineCount, &entry.ByteSize, &status); err != nil {
			return nil, lzerrors.NewStorageError("list_files", err)
		}
		entry.Language = types.Language(lang)
		entry.ParseStatus = types.ParseStatus(status)
		entry.ModifiedAt, _ = time.Parse(time.RFC3339, modifiedAt)
		out = append(out, entry)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
