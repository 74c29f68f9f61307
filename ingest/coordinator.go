package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/storage"
)

const defaultSubBatchSize = 100

// WriterFactory opens an independent corpus writer for one worker. Each
// invocation must return a writer with its own connection and caches; the
// coordinator closes it when the worker's chunk is done.
type WriterFactory func(ctx context.Context) (storage.CorpusWriter, error)

// ProgressFunc receives the running total of imported articles after each
// committed sub-batch. It may be called concurrently from multiple workers.
type ProgressFunc func(imported int)

// Coordinator partitions a batch of articles across a fixed worker pool.
type Coordinator struct {
	factory      WriterFactory
	pool         *ants.Pool
	workers      int
	subBatchSize int
	progress     ProgressFunc
	released     atomic.Bool
	logger       *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithWorkers sets the number of parallel import workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(c *Coordinator) error {
		if n < 1 {
			n = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		c.pool = pool
		c.workers = n
		return nil
	}
}

// WithSubBatchSize sets how many articles each worker commits per
// transaction. Default is 100.
func WithSubBatchSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}
		c.subBatchSize = size
		return nil
	}
}

// WithProgress registers a callback invoked after every committed sub-batch.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Coordinator) error {
		c.progress = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "coordinator")
		return nil
	}
}

// NewCoordinator creates an import coordinator around a writer factory.
func NewCoordinator(factory WriterFactory, opts ...Option) (*Coordinator, error) {
	if factory == nil {
		return nil, ErrWriterFactoryRequired
	}

	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		factory:      factory,
		pool:         pool,
		workers:      workers,
		subBatchSize: defaultSubBatchSize,
		logger:       slog.Default().With("component", "coordinator"),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// ImportAll splits articles into one contiguous chunk per worker and writes
// them in parallel, returning the total imported count on full success.
//
// On any worker error ImportAll returns that error without waiting for or
// cancelling sibling workers. Sub-batches committed before the failure stay
// committed; no partial count is reported, so callers needing one must
// count rows in the store.
func (c *Coordinator) ImportAll(ctx context.Context, articles []*core.Article) (int, error) {
	if c.released.Load() {
		return 0, ErrCoordinatorReleased
	}
	if len(articles) == 0 {
		return 0, nil
	}

	chunks := partition(articles, c.workers)
	c.logger.Info("starting import",
		"articles", len(articles), "workers", len(chunks), "sub_batch", c.subBatchSize)

	var (
		imported atomic.Int64
		wg       sync.WaitGroup
		errCh    = make(chan error, len(chunks))
		done     = make(chan struct{})
	)

	for i, chunk := range chunks {
		wg.Add(1)
		chunkIdx, chunk := i, chunk
		submitErr := c.pool.Submit(func() {
			defer wg.Done()
			if err := c.importChunk(ctx, chunkIdx, chunk, &imported); err != nil {
				errCh <- err
			}
		})
		if submitErr != nil {
			wg.Done()
			errCh <- submitErr
		}
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		return 0, err
	case <-done:
		// A worker may have finished with an error in the same instant the
		// join completed.
		select {
		case err := <-errCh:
			return 0, err
		default:
		}
	}

	total := int(imported.Load())
	c.logger.Info("import complete", "imported", total)
	return total, nil
}

func (c *Coordinator) importChunk(ctx context.Context, chunkIdx int, chunk []*core.Article, imported *atomic.Int64) error {
	writer, err := c.factory(ctx)
	if err != nil {
		return fmt.Errorf("chunk %d: opening writer: %w", chunkIdx, err)
	}
	defer writer.Close()

	for start := 0; start < len(chunk); start += c.subBatchSize {
		end := min(start+c.subBatchSize, len(chunk))
		if err := writer.WriteBatch(ctx, chunk[start:end]); err != nil {
			return fmt.Errorf("chunk %d, records %d..%d (%q..): %w",
				chunkIdx, start, end-1, chunk[start].Title, err)
		}
		total := imported.Add(int64(end - start))
		if c.progress != nil {
			c.progress(int(total))
		}
	}

	c.logger.Debug("chunk complete", "chunk", chunkIdx, "records", len(chunk))
	return nil
}

// partition splits articles into at most workers contiguous chunks of
// ceil(len/workers) records each. Fewer chunks come back when the batch is
// smaller than the worker count.
func partition(articles []*core.Article, workers int) [][]*core.Article {
	chunkSize := (len(articles) + workers - 1) / workers
	chunks := make([][]*core.Article, 0, workers)
	for start := 0; start < len(articles); start += chunkSize {
		end := min(start+chunkSize, len(articles))
		chunks = append(chunks, articles[start:end])
	}
	return chunks
}

// Release frees the worker pool. The coordinator must not be used afterwards.
func (c *Coordinator) Release() {
	if c.released.Swap(true) {
		return
	}
	if c.pool != nil {
		c.pool.Release()
	}
}
