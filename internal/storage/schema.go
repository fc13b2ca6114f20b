// Package storage is the SQLite-backed persistent store: files, symbols,
// references, call edges, type relationships, full-text search and Markov
// chains, per spec.md §4.5. It follows the hand-written database/sql +
// modernc.org/sqlite pattern in josephgoksu-TaskWing's
// internal/memory/sqlite.go and internal/codeintel/repository.go — a
// schema-as-string initializer run once via db.Exec, parameterized queries,
// sql.NullString for optional columns, and WITH RECURSIVE CTEs for the
// graph-shaped dependency/hierarchy queries — rather than the GORM approach
// seen in termfx-morfx/db/sqlite.go, which would obscure the cascading-
// delete and FTS-lockstep invariants spec.md §4.5 calls out explicitly.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
)

// schema creates every logical table spec.md §4.5 names. Symbols use the
// spec's stable string ID ("<path>:<name>:<kind>:<line>") as primary key
// rather than a surrogate integer, so re-indexing naturally replaces rows
// instead of requiring an upsert-then-reselect round trip.
const schema = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	language     TEXT NOT NULL,
	checksum     TEXT NOT NULL,
	modified_at  TEXT NOT NULL,
	line_count   INTEGER NOT NULL,
	byte_size    INTEGER NOT NULL,
	parse_status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_warnings (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	code      TEXT NOT NULL,
	message   TEXT NOT NULL,
	line      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_warnings_file ON file_warnings(file_path);

CREATE TABLE IF NOT EXISTS symbols (
	id              TEXT PRIMARY KEY,
	fqn             TEXT NOT NULL,
	file_path       TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	language        TEXT NOT NULL,
	kind            TEXT NOT NULL,
	name            TEXT NOT NULL,
	local_name      TEXT,
	parent_class    TEXT,
	start_line      INTEGER NOT NULL,
	end_line        INTEGER NOT NULL,
	start_column    INTEGER NOT NULL,
	end_column      INTEGER NOT NULL,
	signature       TEXT,
	return_type     TEXT,
	extends         TEXT,
	aliased_type    TEXT,
	declared_type   TEXT,
	exported        INTEGER NOT NULL DEFAULT 0,
	async           INTEGER NOT NULL DEFAULT 0,
	generator       INTEGER NOT NULL DEFAULT 0,
	static          INTEGER NOT NULL DEFAULT 0,
	abstract        INTEGER NOT NULL DEFAULT 0,
	visibility      TEXT,
	callback_ctx    TEXT,
	doc_description TEXT,
	doc_returns     TEXT,
	source_text     TEXT
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_class);

CREATE TABLE IF NOT EXISTS symbol_implements (
	symbol_id TEXT NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	name      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbol_implements_symbol ON symbol_implements(symbol_id);
CREATE INDEX IF NOT EXISTS idx_symbol_implements_name ON symbol_implements(name);

CREATE TABLE IF NOT EXISTS symbol_type_params (
	symbol_id TEXT NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	name      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbol_type_params_symbol ON symbol_type_params(symbol_id);

CREATE TABLE IF NOT EXISTS doc_params (
	symbol_id   TEXT NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	description TEXT
);
CREATE INDEX IF NOT EXISTS idx_doc_params_symbol ON doc_params(symbol_id);

CREATE TABLE IF NOT EXISTS doc_throws (
	symbol_id   TEXT NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	description TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_doc_throws_symbol ON doc_throws(symbol_id);

CREATE TABLE IF NOT EXISTS function_params (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol_id      TEXT NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	name           TEXT NOT NULL,
	type           TEXT,
	default_value  TEXT,
	optional       INTEGER NOT NULL DEFAULT 0,
	rest           INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_function_params_symbol ON function_params(symbol_id);

-- Normalized return/parameter base types for searchByType (spec.md §4.2,
-- §4.5). typesMatch itself runs in Go (internal/typenorm); this table just
-- narrows the SQL-side candidate set before that predicate is applied.
CREATE TABLE IF NOT EXISTS symbol_type_info (
	symbol_id      TEXT PRIMARY KEY REFERENCES symbols(id) ON DELETE CASCADE,
	return_base    TEXT,
	return_raw     TEXT,
	param_bases    TEXT, -- comma-joined, for a cheap LIKE pre-filter
	is_async       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_symbol_type_info_return ON symbol_type_info(return_base);

-- Standalone (non content-linked) FTS5 table: symbols.id is a TEXT primary
-- key, not an integer rowid, so it cannot back a content= table the way
-- TaskWing's integer-keyed symbols table does. symbol_id is carried as an
-- UNINDEXED col instead and joined back manually.
CREATE VIRTUAL TABLE IF NOT EXISTS fts_symbols USING fts5(
	symbol_id UNINDEXED,
	name,
	signature,
	doc_description,
	tokenize = 'porter'
);

CREATE TABLE IF NOT EXISTS imports (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path     TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	source        TEXT NOT NULL,
	is_type_only  INTEGER NOT NULL DEFAULT 0,
	resolved_path TEXT,
	is_external   INTEGER NOT NULL DEFAULT 0,
	is_builtin    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_path);
CREATE INDEX IF NOT EXISTS idx_imports_resolved ON imports(resolved_path);

CREATE TABLE IF NOT EXISTS import_specifiers (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	import_id    INTEGER NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	alias        TEXT,
	is_default   INTEGER NOT NULL DEFAULT 0,
	is_namespace INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_import_specifiers_import ON import_specifiers(import_id);

CREATE TABLE IF NOT EXISTS exports (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path        TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	name             TEXT NOT NULL,
	kind             TEXT,
	is_re_export     INTEGER NOT NULL DEFAULT 0,
	re_export_source TEXT
);
CREATE INDEX IF NOT EXISTS idx_exports_file ON exports(file_path);
CREATE INDEX IF NOT EXISTS idx_exports_name ON exports(name);

-- "references" is a reserved word in SQLite's grammar (FOREIGN KEY syntax);
-- named symbol_references to avoid any parser ambiguity.
CREATE TABLE IF NOT EXISTS symbol_references (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol_id               TEXT REFERENCES symbols(id) ON DELETE SET NULL,
	symbol_name             TEXT NOT NULL,
	referencing_file        TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	referencing_symbol_id   TEXT REFERENCES symbols(id) ON DELETE SET NULL,
	referencing_symbol_name TEXT,
	line                    INTEGER NOT NULL,
	col                  INTEGER NOT NULL,
	context                 TEXT,
	kind                    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbol_references_name ON symbol_references(symbol_name);
CREATE INDEX IF NOT EXISTS idx_symbol_references_file ON symbol_references(referencing_file);
CREATE INDEX IF NOT EXISTS idx_symbol_references_symbol_id ON symbol_references(symbol_id);

CREATE TABLE IF NOT EXISTS call_edges (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path          TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	caller_symbol_id   TEXT REFERENCES symbols(id) ON DELETE SET NULL,
	caller_name        TEXT NOT NULL,
	callee_symbol_id   TEXT REFERENCES symbols(id) ON DELETE SET NULL,
	callee_name        TEXT NOT NULL,
	call_count         INTEGER NOT NULL DEFAULT 1,
	is_async           INTEGER NOT NULL DEFAULT 0,
	is_conditional     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_call_edges_file ON call_edges(file_path);
CREATE INDEX IF NOT EXISTS idx_call_edges_caller ON call_edges(caller_symbol_id);
CREATE INDEX IF NOT EXISTS idx_call_edges_caller_name ON call_edges(caller_name);
CREATE INDEX IF NOT EXISTS idx_call_edges_callee ON call_edges(callee_symbol_id);
CREATE INDEX IF NOT EXISTS idx_call_edges_callee_name ON call_edges(callee_name);

CREATE TABLE IF NOT EXISTS type_relationships (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path         TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	source_symbol_id  TEXT REFERENCES symbols(id) ON DELETE SET NULL,
	source_name       TEXT NOT NULL,
	target_symbol_id  TEXT REFERENCES symbols(id) ON DELETE SET NULL,
	target_name       TEXT NOT NULL,
	kind              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_type_rel_file ON type_relationships(file_path);
CREATE INDEX IF NOT EXISTS idx_type_rel_source ON type_relationships(source_symbol_id);
CREATE INDEX IF NOT EXISTS idx_type_rel_source_name ON type_relationships(source_name);
CREATE INDEX IF NOT EXISTS idx_type_rel_target_name ON type_relationships(target_name);

CREATE TABLE IF NOT EXISTS markov_chains (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_type TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS markov_states (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_id INTEGER NOT NULL REFERENCES markov_chains(id) ON DELETE CASCADE,
	state    TEXT NOT NULL,
	UNIQUE(chain_id, state)
);
CREATE INDEX IF NOT EXISTS idx_markov_states_chain ON markov_states(chain_id);

CREATE TABLE IF NOT EXISTS markov_transitions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_id    INTEGER NOT NULL REFERENCES markov_chains(id) ON DELETE CASCADE,
	from_state  TEXT NOT NULL,
	to_state    TEXT NOT NULL,
	raw_count   INTEGER NOT NULL,
	probability REAL NOT NULL,
	UNIQUE(chain_id, from_state, to_state)
);
CREATE INDEX IF NOT EXISTS idx_markov_transitions_from ON markov_transitions(chain_id, from_state);
`

// Store is the storage layer's single entry point. Writes are serialized
// through writeDB (SetMaxOpenConns(1)); readDB is a separate connection
// pool for concurrent snapshot reads, per spec.md §4.5's concurrency model
// and the teacher's single-writer/reader-pool split around MasterIndex. An
// in-memory store has no separate pool: readDB is the writer handle.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
	path    string
}

// Open creates (if needed) the database file's parent directory, opens the
// write and read connections, and applies the schema. Following
// SQLiteStore.NewSQLiteStore in josephgoksu-TaskWing/internal/memory/sqlite.go.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, lzerrors.NewStorageError("open", fmt.Errorf("create db directory: %w", err))
			}
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, lzerrors.NewStorageError("open", err)
	}
	writeDB.SetMaxOpenConns(1)

	var readDB *sql.DB
	if path == ":memory:" {
		// An in-memory database is private to the connection that created
		// it, so the reader shares the single writer connection.
		readDB = writeDB
	} else {
		readDB, err = sql.Open("sqlite", dsn)
		if err != nil {
			writeDB.Close()
			return nil, lzerrors.NewStorageError("open", err)
		}
	}

	for _, db := range []*sql.DB{writeDB, readDB} {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, lzerrors.NewStorageError("open", fmt.Errorf("enable foreign keys: %w", err))
		}
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, lzerrors.NewStorageError("open", fmt.Errorf("enable WAL: %w", err))
		}
	}

	if _, err := writeDB.Exec(schema); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, lzerrors.NewStorageError("init_schema", err)
	}

	s := &Store{writeDB: writeDB, readDB: readDB, path: path}
	if err := s.seedChains(context.Background()); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, err
	}
	return s, nil
}

// seedChains ensures all four Markov chain rows exist up front, so
// getChainId never needs a lazy-create path mid-query.
func (s *Store) seedChains(ctx context.Context) error {
	for _, ct := range []string{"call_flow", "cooccurrence", "type_affinity", "import_cluster"} {
		if _, err := s.writeDB.ExecContext(ctx, `INSERT OR IGNORE INTO markov_chains (chain_type) VALUES (?)`, ct); err != nil {
			return lzerrors.NewStorageError("seed_chains", err)
		}
	}
	return nil
}

// Close releases both connections.
func (s *Store) Close() error {
	werr := s.writeDB.Close()
	rerr := s.readDB.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
