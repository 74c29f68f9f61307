package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/wikidex/storage"
)

// EmbeddingStore persists key to vector pairs in one named section of a
// Badger database and answers cosine top-k queries by brute-force scan.
//
// The vector dimension is fixed per store instance: it is either set with
// WithDimension or pinned by the first Put, and persisted so reopening the
// section keeps the same bound. Any vector of a different dimension fails
// with storage.ErrDimensionMismatch.
//
// An EmbeddingStore is safe for concurrent use; writers serialize on an
// internal mutex, readers see snapshot state.
type EmbeddingStore struct {
	backend *Backend
	section string
	logger  *slog.Logger

	mu  sync.Mutex
	dim int // 0 until pinned; guarded by mu
}

var _ storage.VectorStore = (*EmbeddingStore)(nil)

// EmbeddingOption configures an EmbeddingStore.
type EmbeddingOption func(*EmbeddingStore)

// WithDimension pins the vector dimension up front instead of inferring it
// from the first Put.
func WithDimension(dim int) EmbeddingOption {
	return func(s *EmbeddingStore) {
		if dim > 0 {
			s.dim = dim
		}
	}
}

// WithEmbeddingLogger sets a custom logger. Default is slog.Default().
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(s *EmbeddingStore) {
		if logger != nil {
			s.logger = logger.With("component", "embedding-store", "section", s.section)
		}
	}
}

// NewEmbeddingStore opens the named section of the backend. A previously
// pinned dimension is loaded from the section's metadata.
func NewEmbeddingStore(backend *Backend, section string, opts ...EmbeddingOption) (*EmbeddingStore, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	if section == "" {
		return nil, errors.New("section name required")
	}

	s := &EmbeddingStore{
		backend: backend,
		section: section,
		logger:  slog.Default().With("component", "embedding-store", "section", section),
	}
	for _, opt := range opts {
		opt(s)
	}

	err := backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDimensionKey(section))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("corrupt dimension metadata for section %q", section)
			}
			stored := int(binary.LittleEndian.Uint32(val))
			if s.dim != 0 && s.dim != stored {
				return fmt.Errorf("%w: section %q holds %d-dimensional vectors, requested %d",
					storage.ErrDimensionMismatch, section, stored, s.dim)
			}
			s.dim = stored
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Dimension returns the pinned vector dimension, or 0 while the section is
// empty and no dimension was requested.
func (s *EmbeddingStore) Dimension() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// Put upserts a vector under the given key. The write transaction is
// committed before Put returns; concurrent readers keep seeing their
// snapshot until then. Writers serialize on the store's mutex so that only
// one Put can pin the dimension; the loser of a mixed-dimension race fails
// with storage.ErrDimensionMismatch instead of splitting the section.
func (s *EmbeddingStore) Put(ctx context.Context, key string, vector []float32) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for key %q", storage.ErrDimensionMismatch, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim != 0 && len(vector) != s.dim {
		return fmt.Errorf("%w: got %d, store holds %d", storage.ErrDimensionMismatch, len(vector), s.dim)
	}

	pinned := s.dim == 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if pinned {
			dimBuf := make([]byte, 4)
			binary.LittleEndian.PutUint32(dimBuf, uint32(len(vector)))
			if err := tx.Set(makeDimensionKey(s.section), dimBuf); err != nil {
				return err
			}
		}
		if err := tx.Set(makeVectorKey(s.section, key), encodeVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	if pinned {
		s.dim = len(vector)
		s.logger.Debug("pinned vector dimension", "dim", s.dim)
	}
	return nil
}

// Get returns the stored vector for a key, or storage.ErrNotFound.
func (s *EmbeddingStore) Get(ctx context.Context, key string) ([]float32, error) {
	var vector []float32
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(s.section, key))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: key %q", storage.ErrNotFound, key)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vector, err = decodeVector(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// FindSimilar scores every stored vector against the query within one read
// transaction and returns the k best matches in descending cosine order.
// Ties keep store iteration order. A dimension mismatch, whether the query
// against the pinned dimension or any stored row against the query, fails
// the whole call with no partial ranking.
func (s *EmbeddingStore) FindSimilar(ctx context.Context, query []float32, k int) ([]storage.Match, error) {
	s.mu.Lock()
	dim := s.dim
	s.mu.Unlock()

	if dim != 0 && len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d, store holds %d", storage.ErrDimensionMismatch, len(query), dim)
	}
	if k <= 0 {
		return nil, nil
	}

	var matches []storage.Match
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = vectorPrefix(s.section)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefixLen := len(vectorPrefix(s.section))
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			key := string(item.Key()[prefixLen:])

			var vector []float32
			err := item.Value(func(val []byte) error {
				var err error
				vector, err = decodeVector(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(vector) != len(query) {
				return fmt.Errorf("%w: stored vector %q has %d, query has %d",
					storage.ErrDimensionMismatch, key, len(vector), len(query))
			}

			matches = append(matches, storage.Match{
				Key:   key,
				Score: cosineSimilarity(query, vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Stable keeps equal scores in store iteration order.
	slices.SortStableFunc(matches, func(a, b storage.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Close releases nothing of its own; the shared backend owns the database
// handle and is closed by whoever opened it.
func (s *EmbeddingStore) Close() error {
	return nil
}
