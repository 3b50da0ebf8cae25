package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/pieceset"
	"github.com/hupe1980/pieceset/blobstore"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyName is returned when saving a checkpoint without a name.
var ErrEmptyName = errors.New("checkpoint name must not be empty")

// Extension is appended to checkpoint names to form blob names.
const Extension = ".pset"

// Store saves and loads named piece sets on a blob store.
// It is safe for concurrent use; concurrent saves of the same name are
// last-writer-wins unless the blob store provides stronger guarantees.
type Store struct {
	blobs blobstore.BlobStore
	opts  options
}

// New returns a Store persisting checkpoints to blobs.
func New(blobs blobstore.BlobStore, optFns ...Option) *Store {
	return &Store{
		blobs: blobs,
		opts:  applyOptions(optFns),
	}
}

func blobName(name string) string {
	return name + Extension
}

// Save persists s under name, replacing any previous checkpoint.
func (s *Store) Save(ctx context.Context, name string, set pieceset.Set) (err error) {
	start := time.Now()
	var size int
	defer func() {
		s.opts.metricsCollector.RecordSave(size, time.Since(start), err)
		s.opts.logger.LogSave(ctx, name, set.Count(), size, err)
	}()

	if name == "" {
		return ErrEmptyName
	}

	data, err := Encode(set, s.opts.compression)
	if err != nil {
		return err
	}
	size = len(data)

	if err := s.opts.resource.AcquireIO(ctx, size); err != nil {
		return err
	}
	return s.blobs.Put(ctx, blobName(name), data)
}

// Load returns the checkpoint saved under name. A missing checkpoint
// yields an error satisfying errors.Is(err, blobstore.ErrNotFound).
func (s *Store) Load(ctx context.Context, name string) (pieceset.Set, error) {
	start := time.Now()
	set, size, err := s.load(ctx, name)
	s.opts.metricsCollector.RecordLoad(size, time.Since(start), err)
	s.opts.logger.LogLoad(ctx, name, set.Count(), err)
	return set, err
}

func (s *Store) load(ctx context.Context, name string) (pieceset.Set, int, error) {
	blob, err := s.blobs.Open(ctx, blobName(name))
	if err != nil {
		return pieceset.Set{}, 0, err
	}
	defer func() { _ = blob.Close() }()

	size := blob.Size()
	rc := s.opts.resource
	if err := rc.AcquireMemory(ctx, size); err != nil {
		return pieceset.Set{}, 0, err
	}
	defer rc.ReleaseMemory(size)

	if err := rc.AcquireIO(ctx, int(size)); err != nil {
		return pieceset.Set{}, 0, err
	}

	data := make([]byte, size)
	if size > 0 {
		n, err := blob.ReadAt(ctx, data, 0)
		if int64(n) != size {
			if err == nil {
				err = fmt.Errorf("short read: %d of %d bytes", n, size)
			}
			return pieceset.Set{}, 0, err
		}
	}

	set, err := Decode(data)
	if err != nil {
		return pieceset.Set{}, int(size), fmt.Errorf("checkpoint %s: %w", name, err)
	}
	return set, int(size), nil
}

// LoadAll loads the named checkpoints in parallel. The result maps each
// name to its set; the first error cancels the remaining loads.
func (s *Store) LoadAll(ctx context.Context, names []string) (map[string]pieceset.Set, error) {
	sets := make([]pieceset.Set, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for i, name := range names {
		g.Go(func() error {
			set, err := s.Load(gctx, name)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.opts.logger.LogLoadAll(ctx, len(names), err)
		return nil, err
	}

	out := make(map[string]pieceset.Set, len(names))
	for i, name := range names {
		out[name] = sets[i]
	}
	s.opts.logger.LogLoadAll(ctx, len(names), nil)
	return out, nil
}

// Delete removes the checkpoint saved under name. Deleting a missing
// checkpoint is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := s.blobs.Delete(ctx, blobName(name))
	s.opts.metricsCollector.RecordDelete(time.Since(start), err)
	s.opts.logger.LogDelete(ctx, name, err)
	return err
}

// List returns the sorted names of saved checkpoints starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	blobs, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(blobs))
	for _, b := range blobs {
		if name, ok := strings.CutSuffix(b, Extension); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
