package storage

import (
	"context"
	"database/sql"
	"strings"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// ListResolvedCallEdges returns every call_edges row with both sides
// resolved to a symbol ID. internal/markov's call_flow builder skips
// unresolved (external-callee) edges per spec.md §4.8, so this is the
// pre-filtered source it reads from rather than GetCallers/GetCallees,
// which are keyed to one ref at a time.
func (s *Store) ListResolvedCallEdges(ctx context.Context) ([]types.CallEdge, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, caller_symbol_id, caller_name, callee_symbol_id, callee_name, call_count, is_async, is_conditional
		FROM call_edges
		WHERE caller_symbol_id IS NOT NULL AND caller_symbol_id != ''
		  AND callee_symbol_id IS NOT NULL AND callee_symbol_id != ''
	`)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_resolved_call_edges", err)
	}
	defer rows.Close()
	return scanCallEdges(rows)
}

// ReferenceOccurrence is one resolved identifier use, grouped by either its
// containing file or its enclosing symbol depending on the cooccurrence
// chain's configured granularity.
type ReferenceOccurrence struct {
	FilePath           string
	EnclosingSymbolID  string // empty when the reference has no resolved enclosing symbol
	SymbolID           string
}

// ListResolvedReferenceOccurrences returns every symbol_references row whose
// target symbol resolved, for the cooccurrence chain builder to group by
// file or by enclosing function.
func (s *Store) ListResolvedReferenceOccurrences(ctx context.Context) ([]ReferenceOccurrence, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT referencing_file, referencing_symbol_id, symbol_id
		FROM symbol_references
		WHERE symbol_id IS NOT NULL AND symbol_id != ''
	`)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_resolved_reference_occurrences", err)
	}
	defer rows.Close()

	var out []ReferenceOccurrence
	for rows.Next() {
		var o ReferenceOccurrence
		var enclosing sql.NullString
		if err := rows.Scan(&o.FilePath, &enclosing, &o.SymbolID); err != nil {
			return nil, lzerrors.NewStorageError("list_resolved_reference_occurrences", err)
		}
		o.EnclosingSymbolID = enclosing.String
		out = append(out, o)
	}
	return out, rows.Err()
}

// SymbolTypeSignature is one function/method's normalized parameter and
// return base types, the raw material for the type_affinity chain.
type SymbolTypeSignature struct {
	SymbolID   string
	ReturnBase string
	ParamBases []string
}

// ListSymbolTypeSignatures returns every symbol with recorded type info.
func (s *Store) ListSymbolTypeSignatures(ctx context.Context) ([]SymbolTypeSignature, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT symbol_id, return_base, param_bases FROM symbol_type_info
	`)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_symbol_type_signatures", err)
	}
	defer rows.Close()

	var out []SymbolTypeSignature
	for rows.Next() {
		var sig SymbolTypeSignature
		var returnBase, paramBases sql.NullString
		if err := rows.Scan(&sig.SymbolID, &returnBase, &paramBases); err != nil {
			return nil, lzerrors.NewStorageError("list_symbol_type_signatures", err)
		}
		sig.ReturnBase = returnBase.String
		if paramBases.String != "" {
			sig.ParamBases = strings.Split(paramBases.String, ",")
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// ImportTarget is one file's import, resolved to the module it names.
type ImportTarget struct {
	FilePath string
	Target   string // resolved_path when known, else the raw import source
}

// ListImportTargets returns every non-external import across the corpus,
// for the import_cluster chain builder to group by shared target module.
func (s *Store) ListImportTargets(ctx context.Context) ([]ImportTarget, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT file_path, resolved_path, source FROM imports WHERE is_external = 0
	`)
	if err != nil {
		return nil, lzerrors.NewStorageError("list_import_targets", err)
	}
	defer rows.Close()

	var out []ImportTarget
	for rows.Next() {
		var t ImportTarget
		var resolved sql.NullString
		var source string
		if err := rows.Scan(&t.FilePath, &resolved, &source); err != nil {
			return nil, lzerrors.NewStorageError("list_import_targets", err)
		}
		t.Target = resolved.String
		if t.Target == "" {
			t.Target = source
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
