// Package storage defines the persistence interfaces for the corpus and the
// embedding vectors, plus the sentinel errors shared by their backends.
//
// The relational corpus store and the vector store are deliberately two
// narrow, non-overlapping abstractions: their operation sets never overlap,
// so no shared polymorphic storage interface exists.
package storage
