// Package badger implements the embedding vector store on BadgerDB.
//
// Vectors live under a named key section of one shared database. Queries are
// a brute-force cosine scan inside a single read transaction: O(N*D) per
// query. That bound is deliberate; corpora that outgrow it need a real
// approximate-nearest-neighbor index, which this store does not provide.
package badger
