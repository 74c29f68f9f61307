// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wikidex

import (
	"context"
	"log/slog"

	"github.com/poiesic/wikidex/ai"
	"github.com/poiesic/wikidex/ai/openai"
	"github.com/poiesic/wikidex/ingest"
	"github.com/poiesic/wikidex/search"
	"github.com/poiesic/wikidex/storage"
	badgerstore "github.com/poiesic/wikidex/storage/badger"
	"github.com/poiesic/wikidex/storage/sqlite"
)

// Corpus bundles the article store, the embedding index, and the embedder
// behind one open/close lifecycle.
type Corpus struct {
	store    *sqlite.Store
	reader   *sqlite.Reader
	backend  *badgerstore.Backend
	vectors  *badgerstore.EmbeddingStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	aiConfig      *ai.Config
	vectorSection string
	embedder      ai.Embedder
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) CorpusOption {
	return func(o *corpusOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithVectorSection names the key section holding article vectors.
// Default is "articles".
func WithVectorSection(section string) CorpusOption {
	return func(o *corpusOptions) {
		if section != "" {
			o.vectorSection = section
		}
	}
}

// WithEmbedder injects a pre-built embedder instead of constructing one
// from the AI configuration.
func WithEmbedder(embedder ai.Embedder) CorpusOption {
	return func(o *corpusOptions) {
		o.embedder = embedder
	}
}

// OpenCorpus opens the article store at corpusPath and the embedding index
// at vectorPath, creating either as needed.
func OpenCorpus(corpusPath, vectorPath string, opts ...CorpusOption) (*Corpus, error) {
	options := &corpusOptions{
		aiConfig:      ai.DefaultConfig(),
		vectorSection: "articles",
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := sqlite.Open(corpusPath)
	if err != nil {
		return nil, err
	}

	backend, err := badgerstore.OpenBackend(vectorPath, vectorPath == "")
	if err != nil {
		store.Close()
		return nil, err
	}

	vectors, err := badgerstore.NewEmbeddingStore(backend, options.vectorSection)
	if err != nil {
		backend.Close()
		store.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			store.Close()
			return nil, err
		}
	}

	return &Corpus{
		store:    store,
		reader:   sqlite.NewReader(store),
		backend:  backend,
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default(),
	}, nil
}

// Close releases both stores.
func (c *Corpus) Close() error {
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing vector backend", "err", err)
		return err
	}
	if err := c.store.Close(); err != nil {
		c.logger.Error("error closing corpus store", "err", err)
		return err
	}
	return nil
}

// Reader returns the corpus read interface.
func (c *Corpus) Reader() storage.CorpusReader {
	return c.reader
}

// Vectors returns the embedding index.
func (c *Corpus) Vectors() storage.VectorStore {
	return c.vectors
}

// NewCoordinator builds an import coordinator whose workers each open an
// independent connection and writer against the corpus database.
func (c *Corpus) NewCoordinator(opts ...ingest.Option) (*ingest.Coordinator, error) {
	factory := func(ctx context.Context) (storage.CorpusWriter, error) {
		store, err := sqlite.Open(c.store.Path())
		if err != nil {
			return nil, err
		}
		return sqlite.NewWriter(store), nil
	}
	return ingest.NewCoordinator(factory, opts...)
}

// NewSearcher builds a searcher over the corpus and its embedding index.
func (c *Corpus) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(c.reader, c.vectors, c.embedder, opts...)
}
