package storage

import (
	"context"
	"database/sql"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// GetReferencesByName returns every reference row naming symbol.
func (s *Store) GetReferencesByName(ctx context.Context, name string) ([]types.Reference, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, symbol_id, symbol_name, referencing_file, referencing_symbol_id,
		       referencing_symbol_name, line, col, context, kind
		FROM symbol_references WHERE symbol_name = ?
		ORDER BY referencing_file, line
	`, name)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_references_by_name", err)
	}
	defer rows.Close()
	return scanReferences(rows)
}

func scanReferences(rows *sql.Rows) ([]types.Reference, error) {
	var out []types.Reference
	for rows.Next() {
		var r types.Reference
		var id int64
		var symbolID, refSymbolID, refSymbolName, context sql.NullString
		if err := rows.Scan(&id, &symbolID, &r.SymbolName, &r.ReferencingFile, &refSymbolID,
			&refSymbolName, &r.Line, &r.Column, &context, &r.Kind); err != nil {
			return nil, lzerrors.NewStorageError("scan_references", err)
		}
		r.ID = types.ReferenceID(id)
		r.SymbolID = types.SymbolID(symbolID.String)
		r.ReferencingSymbolID = types.SymbolID(refSymbolID.String)
		r.ReferencingSymbolName = refSymbolName.String
		r.Context = context.String
		out = append(out, r)
	}
	return out, nil
}

func scanCallEdges(rows *sql.Rows) ([]types.CallEdge, error) {
	var out []types.CallEdge
	for rows.Next() {
		var e types.CallEdge
		var id int64
		var callerID, calleeID sql.NullString
		var isAsync, isConditional int
		if err := rows.Scan(&id, &callerID, &e.CallerName, &calleeID, &e.CalleeName,
			&e.CallCount, &isAsync, &isConditional); err != nil {
			return nil, lzerrors.NewStorageError("scan_call_edges", err)
		}
		e.ID = types.CallEdgeID(id)
		e.CallerSymbolID = types.SymbolID(callerID.String)
		e.CalleeSymbolID = types.SymbolID(calleeID.String)
		e.IsAsync = isAsync != 0
		e.IsConditional = isConditional != 0
		out = append(out, e)
	}
	return out, nil
}

// GetCallers returns every call edge whose callee matches ref, which may be
// a bare name or a stable symbol ID, per spec.md §4.5's "getCallers(name|id)".
func (s *Store) GetCallers(ctx context.Context, ref string) ([]types.CallEdge, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, caller_symbol_id, caller_name, callee_symbol_id, callee_name, call_count, is_async, is_conditional
		FROM call_edges WHERE callee_symbol_id = ? OR callee_name = ?
		ORDER BY caller_name
	`, ref, ref)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_callers", err)
	}
	defer rows.Close()
	return scanCallEdges(rows)
}

// GetCallees returns every call edge whose caller matches ref.
func (s *Store) GetCallees(ctx context.Context, ref string) ([]types.CallEdge, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, caller_symbol_id, caller_name, callee_symbol_id, callee_name, call_count, is_async, is_conditional
		FROM call_edges WHERE caller_symbol_id = ? OR caller_name = ?
		ORDER BY callee_name
	`, ref, ref)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_callees", err)
	}
	defer rows.Close()
	return scanCallEdges(rows)
}

func scanTypeRels(rows *sql.Rows) ([]types.TypeRelationship, error) {
	var out []types.TypeRelationship
	for rows.Next() {
		var r types.TypeRelationship
		var id int64
		var sourceID, targetID sql.NullString
		if err := rows.Scan(&id, &sourceID, &r.SourceName, &targetID, &r.TargetName, &r.Kind); err != nil {
			return nil, lzerrors.NewStorageError("scan_type_relationships", err)
		}
		r.ID = types.TypeRelID(id)
		r.SourceSymbolID = types.SymbolID(sourceID.String)
		r.TargetSymbolID = types.SymbolID(targetID.String)
		out = append(out, r)
	}
	return out, nil
}

// GetSubtypes returns every type that extends name directly.
func (s *Store) GetSubtypes(ctx context.Context, name string) ([]types.TypeRelationship, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, source_symbol_id, source_name, target_symbol_id, target_name, kind
		FROM type_relationships WHERE target_name = ? AND kind = ?
		ORDER BY source_name
	`, name, string(types.RelExtends))
	if err != nil {
		return nil, lzerrors.NewStorageError("get_subtypes", err)
	}
	defer rows.Close()
	return scanTypeRels(rows)
}

// FindImplementations returns every type that implements interface name directly.
func (s *Store) FindImplementations(ctx context.Context, name string) ([]types.TypeRelationship, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, source_symbol_id, source_name, target_symbol_id, target_name, kind
		FROM type_relationships WHERE target_name = ? AND kind = ?
		ORDER BY source_name
	`, name, string(types.RelImplements))
	if err != nil {
		return nil, lzerrors.NewStorageError("find_implementations", err)
	}
	defer rows.Close()
	return scanTypeRels(rows)
}

// TypeHierarchyNode is one level of a getTypeHierarchy result.
type TypeHierarchyNode struct {
	Name  string
	Depth int // negative = ancestor, positive = descendant, 0 = self
	Kind  types.TypeRelKind
}

// GetTypeHierarchy walks both directions of the extends/implements graph
// from name: ancestors (what name extends/implements, transitively) and
// descendants (what extends/implements name, transitively), via a
// recursive CTE per chain, following the WITH RECURSIVE shape of
// josephgoksu-TaskWing/internal/memory/sqlite.go's GetDependencies/
// GetDependents pair.
func (s *Store) GetTypeHierarchy(ctx context.Context, name string) ([]TypeHierarchyNode, error) {
	ancestors, err := s.readDB.QueryContext(ctx, `
		WITH RECURSIVE up(target_name, kind, depth) AS (
			SELECT target_name, kind, 1 FROM type_relationships WHERE source_name = ?
			UNION ALL
			SELECT tr.target_name, tr.kind, up.depth + 1
			FROM type_relationships tr JOIN up ON tr.source_name = up.target_name
			WHERE up.depth < 20
		)
		SELECT DISTINCT target_name, kind, depth FROM up ORDER BY depth
	`, name)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_type_hierarchy", err)
	}
	var out []TypeHierarchyNode
	for ancestors.Next() {
		var n TypeHierarchyNode
		var kind string
		if err := ancestors.Scan(&n.Name, &kind, &n.Depth); err != nil {
			ancestors.Close()
			return nil, lzerrors.NewStorageError("get_type_hierarchy", err)
		}
		n.Kind = types.TypeRelKind(kind)
		n.Depth = -n.Depth
		out = append(out, n)
	}
	ancestors.Close()

	descendants, err := s.readDB.QueryContext(ctx, `
		WITH RECURSIVE down(source_name, kind, depth) AS (
			SELECT source_name, kind, 1 FROM type_relationships WHERE target_name = ?
			UNION ALL
			SELECT tr.source_name, tr.kind, down.depth + 1
			FROM type_relationships tr JOIN down ON tr.target_name = down.source_name
			WHERE down.depth < 20
		)
		SELECT DISTINCT source_name, kind, depth FROM down ORDER BY depth
	`, name)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_type_hierarchy", err)
	}
	defer descendants.Close()
	for descendants.Next() {
		var n TypeHierarchyNode
		var kind string
		if err := descendants.Scan(&n.Name, &kind, &n.Depth); err != nil {
			return nil, lzerrors.NewStorageError("get_type_hierarchy", err)
		}
		n.Kind = types.TypeRelKind(kind)
		out = append(out, n)
	}

	return out, nil
}

// GetFileImports returns path's raw import rows with specifiers attached.
func (s *Store) GetFileImports(ctx context.Context, path string) ([]types.Import, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, source, is_type_only, resolved_path, is_external, is_builtin
		FROM imports WHERE file_path = ? ORDER BY id
	`, path)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_file_imports", err)
	}
	defer rows.Close()

	var out []types.Import
	var ids []int64
	for rows.Next() {
		var imp types.Import
		var id int64
		var isTypeOnly, isExternal, isBuiltin int
		var resolved sql.NullString
		if err := rows.Scan(&id, &imp.Source, &isTypeOnly, &resolved, &isExternal, &isBuiltin); err != nil {
			return nil, lzerrors.NewStorageError("get_file_imports", err)
		}
		imp.IsTypeOnly = isTypeOnly != 0
		imp.IsExternal = isExternal != 0
		imp.IsBuiltIn = isBuiltin != 0
		imp.ResolvedPath = resolved.String
		out = append(out, imp)
		ids = append(ids, id)
	}

	for i, id := range ids {
		specRows, err := s.readDB.QueryContext(ctx, `
			SELECT name, alias, is_default, is_namespace FROM import_specifiers WHERE import_id = ?
		`, id)
		if err != nil {
			return nil, lzerrors.NewStorageError("get_file_imports", err)
		}
		for specRows.Next() {
			var spec types.ImportSpecifier
			var alias sql.NullString
			var isDefault, isNamespace int
			if err := specRows.Scan(&spec.Name, &alias, &isDefault, &isNamespace); err != nil {
				specRows.Close()
				return nil, lzerrors.NewStorageError("get_file_imports", err)
			}
			spec.Alias = alias.String
			spec.IsDefault = isDefault != 0
			spec.IsNamespace = isNamespace != 0
			out[i].Specifiers = append(out[i].Specifiers, spec)
		}
		specRows.Close()
	}
	return out, nil
}

// GetReverseDependencies returns every file whose imports resolve to path —
// i.e. everything that would need re-checking if path's exports changed.
func (s *Store) GetReverseDependencies(ctx context.Context, path string) ([]string, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT DISTINCT file_path FROM imports WHERE resolved_path = ? ORDER BY file_path
	`, path)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_reverse_dependencies", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, lzerrors.NewStorageError("get_reverse_dependencies", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// GetTransitiveDependencies walks the forward import graph from path up to
// depth levels, via a recursive CTE bounded the same way
// GetImpactRadius bounds maxDepth in
// josephgoksu-TaskWing/internal/codeintel/repository.go.
func (s *Store) GetTransitiveDependencies(ctx context.Context, path string, depth int) ([]string, error) {
	if depth <= 0 || depth > 5 {
		depth = 5
	}
	rows, err := s.readDB.QueryContext(ctx, `
		WITH RECURSIVE deps(file_path, depth) AS (
			SELECT resolved_path, 1 FROM imports WHERE file_path = ? AND resolved_path IS NOT NULL
			UNION ALL
			SELECT i.resolved_path, d.depth + 1
			FROM imports i JOIN deps d ON i.file_path = d.file_path
			WHERE i.resolved_path IS NOT NULL AND d.depth < ?
		)
		SELECT DISTINCT file_path FROM deps ORDER BY file_path
	`, path, depth)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_transitive_dependencies", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, lzerrors.NewStorageError("get_transitive_dependencies", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// DetectCircularDependencies reports every import cycle reachable from
// path, as the ordered list of files in the cycle. Cycle detection
// accumulates a '|'-delimited route string and stops extending a branch
// once it revisits a file already in its own route, mirroring the
// route-accumulation/NOT LIKE cycle guard in
// josephgoksu-TaskWing/internal/memory/sqlite.go's FindPath.
func (s *Store) DetectCircularDependencies(ctx context.Context, path string) ([][]string, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		WITH RECURSIVE walk(file_path, route, is_cycle) AS (
			SELECT resolved_path, ? || '|' || resolved_path, 0
			FROM imports WHERE file_path = ? AND resolved_path IS NOT NULL
			UNION ALL
			SELECT i.resolved_path,
			       w.route || '|' || i.resolved_path,
			       CASE WHEN i.resolved_path = ? THEN 1 ELSE 0 END
			FROM imports i JOIN walk w ON i.file_path = w.file_path
			WHERE i.resolved_path IS NOT NULL
			  AND w.is_cycle = 0
			  AND w.route NOT LIKE '%|' || i.resolved_path || '|%'
			  AND length(w.route) - length(replace(w.route, '|', '')) < 20
		)
		SELECT route FROM walk WHERE is_cycle = 1
	`, path, path, path)
	if err != nil {
		return nil, lzerrors.NewStorageError("detect_circular_dependencies", err)
	}
	defer rows.Close()

	var cycles [][]string
	for rows.Next() {
		var route string
		if err := rows.Scan(&route); err != nil {
			return nil, lzerrors.NewStorageError("detect_circular_dependencies", err)
		}
		cycles = append(cycles, splitRoute(route))
	}
	return cycles, nil
}

func splitRoute(route string) []string {
	var out []string
	start := 0
	for i := 0; i < len(route); i++ {
		if route[i] == '|' {
			out = append(out, route[start:i])
			start = i + 1
		}
	}
	out = append(out, route[start:])
	return out
}

// ResolveSymbolReferences is the bulk pass that fills in every null
// symbol_id/referencing_symbol_id/caller_symbol_id/callee_symbol_id/
// source_symbol_id/target_symbol_id by name lookup, per spec.md §4.5:
// "looks up the name within the file-local then the global symbol tables".
// Enclosing-symbol columns (referencing, caller, source) are always
// resolved file-locally, since the enclosing symbol necessarily lives in
// the file being parsed; referenced/callee/target columns try file-local
// first, then fall back to a global name match, since the referenced
// symbol may live anywhere. Returns the total number of rows newly
// resolved across all tables.
func (s *Store) ResolveSymbolReferences(ctx context.Context) (int, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, lzerrors.NewStorageError("resolve_symbol_references", err)
	}
	defer tx.Rollback()

	var total int64

	statements := []string{
		// symbol_references.referencing_symbol_id: always file-local.
		`UPDATE symbol_references SET referencing_symbol_id = (
			SELECT s.id FROM symbols s
			WHERE s.file_path = symbol_references.referencing_file AND s.name = symbol_references.referencing_symbol_name
			LIMIT 1
		) WHERE referencing_symbol_id IS NULL AND referencing_symbol_name IS NOT NULL AND referencing_symbol_name != '' AND EXISTS (
			SELECT 1 FROM symbols s WHERE s.file_path = symbol_references.referencing_file AND s.name = symbol_references.referencing_symbol_name
		)`,
		// symbol_references.symbol_id: file-local first.
		`UPDATE symbol_references SET symbol_id = (
			SELECT s.id FROM symbols s
			WHERE s.file_path = symbol_references.referencing_file AND s.name = symbol_references.symbol_name
			LIMIT 1
		) WHERE symbol_id IS NULL AND EXISTS (
			SELECT 1 FROM symbols s WHERE s.file_path = symbol_references.referencing_file AND s.name = symbol_references.symbol_name
		)`,
		// symbol_references.symbol_id: global fallback.
		`UPDATE symbol_references SET symbol_id = (
			SELECT s.id FROM symbols s WHERE s.name = symbol_references.symbol_name LIMIT 1
		) WHERE symbol_id IS NULL AND EXISTS (SELECT 1 FROM symbols s WHERE s.name = symbol_references.symbol_name)`,

		// call_edges.caller_symbol_id: always file-local.
		`UPDATE call_edges SET caller_symbol_id = (
			SELECT s.id FROM symbols s WHERE s.file_path = call_edges.file_path AND s.name = call_edges.caller_name LIMIT 1
		) WHERE caller_symbol_id IS NULL AND EXISTS (
			SELECT 1 FROM symbols s WHERE s.file_path = call_edges.file_path AND s.name = call_edges.caller_name
		)`,
		// call_edges.callee_symbol_id: file-local first.
		`UPDATE call_edges SET callee_symbol_id = (
			SELECT s.id FROM symbols s WHERE s.file_path = call_edges.file_path AND s.name = call_edges.callee_name LIMIT 1
		) WHERE callee_symbol_id IS NULL AND EXISTS (
			SELECT 1 FROM symbols s WHERE s.file_path = call_edges.file_path AND s.name = call_edges.callee_name
		)`,
		// call_edges.callee_symbol_id: global fallback.
		`UPDATE call_edges SET callee_symbol_id = (
			SELECT s.id FROM symbols s WHERE s.name = call_edges.callee_name LIMIT 1
		) WHERE callee_symbol_id IS NULL AND EXISTS (SELECT 1 FROM symbols s WHERE s.name = call_edges.callee_name)`,

		// type_relationships.source_symbol_id: always file-local.
		`UPDATE type_relationships SET source_symbol_id = (
			SELECT s.id FROM symbols s WHERE s.file_path = type_relationships.file_path AND s.name = type_relationships.source_name LIMIT 1
		) WHERE source_symbol_id IS NULL AND EXISTS (
			SELECT 1 FROM symbols s WHERE s.file_path = type_relationships.file_path AND s.name = type_relationships.source_name
		)`,
		// type_relationships.target_symbol_id: file-local first.
		`UPDATE type_relationships SET target_symbol_id = (
			SELECT s.id FROM symbols s WHERE s.file_path = type_relationships.file_path AND s.name = type_relationships.target_name LIMIT 1
		) WHERE target_symbol_id IS NULL AND EXISTS (
			SELECT 1 FROM symbols s WHERE s.file_path = type_relationships.file_path AND s.name = type_relationships.target_name
		)`,
		// type_relationships.target_symbol_id: global fallback.
		`UPDATE type_relationships SET target_symbol_id = (
			SELECT s.id FROM symbols s WHERE s.name = type_relationships.target_name LIMIT 1
		) WHERE target_symbol_id IS NULL AND EXISTS (SELECT 1 FROM symbols s WHERE s.name = type_relationships.target_name)`,
	}

	for _, stmt := range statements {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return 0, lzerrors.NewStorageError("resolve_symbol_references", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, lzerrors.NewStorageError("resolve_symbol_references", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, lzerrors.NewStorageError("resolve_symbol_references", err)
	}
	return int(total), nil
}
