package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

const symbolColumns = `
	id, fqn, file_path, language, kind, name, local_name, parent_class,
	start_line, end_line, start_column, end_column, signature, return_type,
	extends, aliased_type, declared_type, exported, async, generator, static,
	abstract, visibility, callback_ctx, doc_description, doc_returns, source_text
`

// symbolColumnsQualified is symbolColumns with an explicit "s." prefix, for
// queries that join the symbols table against another table under alias s.
const symbolColumnsQualified = `
	s.id, s.fqn, s.file_path, s.language, s.kind, s.name, s.local_name, s.parent_class,
	s.start_line, s.end_line, s.start_column, s.end_column, s.signature, s.return_type,
	s.extends, s.aliased_type, s.declared_type, s.exported, s.async, s.generator, s.static,
	s.abstract, s.visibility, s.callback_ctx, s.doc_description, s.doc_returns, s.source_text
`

// scanSymbolRow scans one symbols-table row. Callers own whether they also
// hydrate the one-to-many sub-tables (parameters, implements, ...) via
// loadSymbolExtras — full hydration is skipped for bulk search results
// where only the flattened row is displayed.
func scanSymbolRow(row interface{ Scan(...any) error }) (types.AnySymbol, error) {
	var sym types.AnySymbol
	var id, lang, kind, localName, parentClass, signature, returnType, extends, aliasedType, declaredType,
		visibility, callbackCtx, docDescription, docReturns, sourceText sql.NullString
	var exported, async, generator, static, abstract int

	err := row.Scan(&id, &sym.FQN, &sym.File, &lang, &kind, &sym.Name, &localName, &parentClass,
		&sym.Location.StartLine, &sym.Location.EndLine, &sym.Location.StartColumn, &sym.Location.EndColumn,
		&signature, &returnType, &extends, &aliasedType, &declaredType,
		&exported, &async, &generator, &static, &abstract, &visibility, &callbackCtx,
		&docDescription, &docReturns, &sourceText)
	if err != nil {
		return sym, err
	}

	sym.ID = types.SymbolID(id.String)
	sym.Language = types.Language(lang.String)
	sym.Kind = types.SymbolKind(kind.String)
	sym.LocalName = localName.String
	sym.ParentClass = parentClass.String
	sym.Signature = signature.String
	sym.ReturnType = returnType.String
	sym.Extends = extends.String
	sym.AliasedType = aliasedType.String
	sym.DeclaredType = declaredType.String
	sym.Visibility = types.Visibility(visibility.String)
	sym.CallbackCtx = callbackCtx.String
	sym.Exported = exported != 0
	sym.Async = async != 0
	sym.Generator = generator != 0
	sym.Static = static != 0
	sym.Abstract = abstract != 0
	sym.Documentation = types.Documentation{Description: docDescription.String, Returns: docReturns.String, Params: map[string]string{}}
	sym.SourceText = sourceText.String
	return sym, nil
}

// loadSymbolExtras fills the one-to-many fields scanSymbolRow cannot
// populate from a single row: parameters, implements list, type
// parameters, per-parameter doc strings and throws entries.
func (s *Store) loadSymbolExtras(ctx context.Context, sym *types.AnySymbol) error {
	id := string(sym.ID)

	rows, err := s.readDB.QueryContext(ctx, `
		SELECT name, type, default_value, optional, rest FROM function_params
		WHERE symbol_id = ? ORDER BY position
	`, id)
	if err != nil {
		return lzerrors.NewStorageError("load_symbol_extras", err)
	}
	for rows.Next() {
		var p types.Parameter
		var typ, def sql.NullString
		var optional, rest int
		if err := rows.Scan(&p.Name, &typ, &def, &optional, &rest); err != nil {
			rows.Close()
			return lzerrors.NewStorageError("load_symbol_extras", err)
		}
		p.Type, p.Default = typ.String, def.String
		p.Optional, p.Rest = optional != 0, rest != 0
		sym.Parameters = append(sym.Parameters, p)
	}
	rows.Close()

	implRows, err := s.readDB.QueryContext(ctx, `SELECT name FROM symbol_implements WHERE symbol_id = ?`, id)
	if err != nil {
		return lzerrors.NewStorageError("load_symbol_extras", err)
	}
	for implRows.Next() {
		var name string
		if err := implRows.Scan(&name); err != nil {
			implRows.Close()
			return lzerrors.NewStorageError("load_symbol_extras", err)
		}
		sym.Implements = append(sym.Implements, name)
	}
	implRows.Close()

	tpRows, err := s.readDB.QueryContext(ctx, `SELECT name FROM symbol_type_params WHERE symbol_id = ? ORDER BY position`, id)
	if err != nil {
		return lzerrors.NewStorageError("load_symbol_extras", err)
	}
	for tpRows.Next() {
		var name string
		if err := tpRows.Scan(&name); err != nil {
			tpRows.Close()
			return lzerrors.NewStorageError("load_symbol_extras", err)
		}
		sym.TypeParameters = append(sym.TypeParameters, name)
	}
	tpRows.Close()

	dpRows, err := s.readDB.QueryContext(ctx, `SELECT name, description FROM doc_params WHERE symbol_id = ?`, id)
	if err != nil {
		return lzerrors.NewStorageError("load_symbol_extras", err)
	}
	for dpRows.Next() {
		var name string
		var desc sql.NullString
		if err := dpRows.Scan(&name, &desc); err != nil {
			dpRows.Close()
			return lzerrors.NewStorageError("load_symbol_extras", err)
		}
		sym.Documentation.Params[name] = desc.String
	}
	dpRows.Close()

	thRows, err := s.readDB.QueryContext(ctx, `SELECT description FROM doc_throws WHERE symbol_id = ?`, id)
	if err != nil {
		return lzerrors.NewStorageError("load_symbol_extras", err)
	}
	for thRows.Next() {
		var desc string
		if err := thRows.Scan(&desc); err != nil {
			thRows.Close()
			return lzerrors.NewStorageError("load_symbol_extras", err)
		}
		sym.Documentation.Throws = append(sym.Documentation.Throws, desc)
	}
	thRows.Close()

	return nil
}

// GetSymbol fetches one fully-hydrated symbol by its stable ID.
func (s *Store) GetSymbol(ctx context.Context, id types.SymbolID) (*types.AnySymbol, bool, error) {
	row := s.readDB.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE id = ?`, string(id))
	sym, err := scanSymbolRow(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, lzerrors.NewStorageError("get_symbol", err)
	}
	if err := s.loadSymbolExtras(ctx, &sym); err != nil {
		return nil, false, err
	}
	return &sym, true, nil
}

// SearchSymbols runs FTS over name/signature/doc_description, per
// spec.md §4.5, filtered by opts.Kinds/Language and bounded by opts.Limit.
// A prefix-wildcard query ("foo*") is passed straight through to FTS5; a
// bare query is quoted to avoid FTS5 syntax errors on punctuation, the
// same sanitize-then-MATCH discipline as
// josephgoksu-TaskWing/internal/codeintel/repository.go's SearchSymbolsFTS.
func (s *Store) SearchSymbols(ctx context.Context, query string, opts types.SearchOptions) ([]types.AnySymbol, error) {
	ftsQuery := buildFTSMatch(query, opts.PrefixWildcard)
	if ftsQuery == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	sqlQuery := `
		SELECT ` + symbolColumnsQualified + `
		FROM fts_symbols f
		JOIN symbols s ON f.symbol_id = s.id
		WHERE fts_symbols MATCH ?
	`
	args := []any{ftsQuery}

	if len(opts.Kinds) > 0 {
		placeholders := make([]string, len(opts.Kinds))
		for i, k := range opts.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		sqlQuery += ` AND s.kind IN (` + strings.Join(placeholders, ",") + `)`
	}
	if opts.Language != "" {
		sqlQuery += ` AND s.language = ?`
		args = append(args, string(opts.Language))
	}
	sqlQuery += ` ORDER BY bm25(fts_symbols) LIMIT ?`
	args = append(args, limit)

	rows, err := s.readDB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, lzerrors.NewStorageError("search_symbols", err)
	}
	defer rows.Close()

	var out []types.AnySymbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, lzerrors.NewStorageError("search_symbols", err)
		}
		out = append(out, sym)
	}
	return out, nil
}

// buildFTSMatch sanitizes a raw query into an FTS5 MATCH expression.
// Punctuation that would otherwise trip FTS5's query grammar is stripped;
// each surviving token is quoted individually and OR-joined, matching the
// synonym expander's "OR of prefix terms" shape from spec.md §4.7 — the
// expander itself builds richer MATCH strings and can be passed directly
// as query with prefixWildcard=true to bypass this quoting.
func buildFTSMatch(query string, prefixWildcard bool) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	if prefixWildcard {
		return query
	}
	replacer := strings.NewReplacer(`"`, " ", `*`, " ", `^`, " ", `:`, " ", `(`, " ", `)`, " ")
	cleaned := replacer.Replace(query)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	var quoted []string
	for _, f := range fields {
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// SearchByType applies typesMatch (internal/typenorm) over symbol_type_info
// rows, per spec.md §4.5. SQL narrows the candidate set with a cheap
// base-type LIKE pre-filter before the full match predicate runs in Go —
// typesMatch's partial/inner modes aren't expressible as a single SQL
// comparison.
func (s *Store) SearchByType(ctx context.Context, opts types.TypeSearchOptions, match func(raw string) bool) ([]types.AnySymbol, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + symbolColumnsQualified + `
		FROM symbol_type_info ti JOIN symbols s ON ti.symbol_id = s.id
		WHERE 1=1
	`
	var args []any
	if opts.ReturnType != "" {
		query += ` AND ti.return_base LIKE ?`
		args = append(args, "%"+baseTypeOf(opts.ReturnType)+"%")
	}
	if opts.ParamType != "" {
		query += ` AND ti.param_bases LIKE ?`
		args = append(args, "%"+baseTypeOf(opts.ParamType)+"%")
	}
	if !opts.IncludeAsyncVariants {
		query += ` AND ti.is_async = 0`
	}
	if opts.Language != "" {
		query += ` AND s.language = ?`
		args = append(args, string(opts.Language))
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lzerrors.NewStorageError("search_by_type", fmt.Errorf("%w (query: %s)", err, query))
	}
	defer rows.Close()

	var out []types.AnySymbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, lzerrors.NewStorageError("search_by_type", err)
		}
		if match == nil || match(sym.ReturnType) {
			out = append(out, sym)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ListSymbolsByFile returns every symbol declared in path, in source order
// (start_line ascending), fully hydrated. list_functions and get_class's
// "declared in this file" lookups both read from here.
func (s *Store) ListSymbolsByFile(ctx context.Context, path string) ([]types.AnySymbol, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT `+symbolColumns+` FROM symbols WHERE file_path = ? ORDER BY start_line
	`, path)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_symbols_by_file", err)
	}
	defer rows.Close()

	var out []types.AnySymbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, lzerrors.NewStorageError("list_symbols_by_file", err)
		}
		out = append(out, sym)
	}
	for i := range out {
		if err := s.loadSymbolExtras(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FindSymbolsByName returns every hydrated symbol with exactly this name,
// optionally narrowed to one file — the shape get_function/get_class need
// once the path resolver has settled on zero or one candidate file.
func (s *Store) FindSymbolsByName(ctx context.Context, name string, filePath string) ([]types.AnySymbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE name = ?`
	args := []any{name}
	if filePath != "" {
		query += ` AND file_path = ?`
		args = append(args, filePath)
	}
	query += ` ORDER BY start_line`

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lzerrors.NewStorageError("find_symbols_by_name", err)
	}
	defer rows.Close()

	var out []types.AnySymbol
	for rows.Next() {
		sym, err := scanSymbolRow(rows)
		if err != nil {
			return nil, lzerrors.NewStorageError("find_symbols_by_name", err)
		}
		out = append(out, sym)
	}
	for i := range out {
		if err := s.loadSymbolExtras(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
