// Package search builds and queries the semantic index over the corpus.
//
// The vector index and the corpus store are not transactionally linked;
// results are hydrated best-effort and entries whose article has vanished
// are skipped rather than failing the search.
package search
