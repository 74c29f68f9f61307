// Package sqlite implements the relational corpus store on SQLite.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no cgo. Article text lives in an FTS5 virtual table, so full-text search
// is the engine's own feature rather than something reimplemented here.
// SQLite enforces a single writer per database file; concurrent writers
// serialize their commits at the storage layer.
package sqlite
