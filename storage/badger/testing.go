package badger

// NewMemoryStore opens an in-memory backend with a single section, for tests
// and ephemeral pipelines. The caller owns the returned backend and must
// close it.
func NewMemoryStore(section string, opts ...EmbeddingOption) (*Backend, *EmbeddingStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	store, err := NewEmbeddingStore(backend, section, opts...)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return backend, store, nil
}
