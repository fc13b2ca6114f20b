package types

import "time"

// ParseStatus records how a file's last indexing attempt went.
type ParseStatus string

const (
	ParseComplete ParseStatus = "complete"
	ParseSkipped  ParseStatus = "skipped"
	ParseErrored  ParseStatus = "errored"
)

// ParseWarning is a non-fatal issue recorded against a file row.
type ParseWarning struct {
	Code    string // e.g. "FILE_TOO_LARGE"
	Message string
	Line    int
}

// FileEntry is the persisted row for one indexed file, identified by
// absolute path. All symbols/imports/exports/references/calls/type
// relationships produced from it are cascade-deleted with it.
type FileEntry struct {
	Path         FileID
	Language     Language
	Checksum     string // stable hash of UTF-8 bytes, hex-encoded
	ModifiedAt   time.Time
	LineCount    int
	ByteSize     int64
	ParseStatus  ParseStatus
	Warnings     []ParseWarning
}

// FileIndex is the full unit of work written atomically by putFile: a file
// row plus everything the last successful parse produced from it.
type FileIndex struct {
	File        FileEntry
	Symbols     []AnySymbol
	Imports     []Import
	Exports     []Export
	References  []Reference
	Calls       []CallEdge
	TypeRels    []TypeRelationship
}
