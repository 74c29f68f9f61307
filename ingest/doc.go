// Package ingest coordinates parallel bulk import of parsed articles.
//
// A finite batch is split into contiguous chunks, one per worker. Every
// worker owns an independent writer (and so its own dedup caches) and
// commits fixed-size sub-batches, bounding transaction size. On a worker
// error the coordinator returns immediately; already-committed sub-batches
// stay committed, so callers that need the surviving count must query the
// store afterwards.
package ingest
