// Package mock provides a deterministic ai.Embedder for tests.
package mock
