// Package cache keeps downloaded bottles in a content-verified artifact cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Store implements ports.ArtifactCache on a directory tree keyed by ArtifactRequest.Key.
type Store struct {
	root       string
	downloader ports.Downloader
	logger     ports.Logger

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

// flight is one shared obtain. Its context outlives any single caller and is cancelled once the
// last caller waiting on it has left.
type flight struct {
	ctx     context.Context //nolint:containedctx // Shared by every caller of one obtain
	cancel  context.CancelFunc
	waiters int
}

// NewStore creates a Store rooted at root.
func NewStore(root string, downloader ports.Downloader, logger ports.Logger) *Store {
	return &Store{
		root:       filepath.Clean(root),
		downloader: downloader,
		logger:     logger,
		flights:    make(map[string]*flight),
	}
}

// Path returns the cache location of the bottle for req.
func (s *Store) Path(req domain.ArtifactRequest) string {
	return filepath.Join(s.root, filepath.FromSlash(req.Key()))
}

// Obtain returns the verified bottle for req. A cached copy is re-verified before use; a corrupt
// one is removed and fetched again. Concurrent calls for the same bottle share one download, which
// keeps running while at least one of them still waits for it.
func (s *Store) Obtain(ctx context.Context, req domain.ArtifactRequest) (domain.Artifact, error) {
	if req.Checksum == "" {
		return domain.Artifact{}, s.fetchError(req, "",
			zerr.With(zerr.With(domain.ErrChecksumUndeclared, "platform", req.Host.Platform()), "compression", string(req.Compression)))
	}

	key := req.Key()
	f, results := s.join(ctx, key, req)
	defer s.leave(key, f)

	select {
	case res := <-results:
		if res.Err != nil {
			return domain.Artifact{}, res.Err
		}
		return res.Val.(domain.Artifact), nil //nolint:forcetypeassert // obtain only returns domain.Artifact
	case <-ctx.Done():
		return domain.Artifact{}, s.fetchError(req, "", ctx.Err())
	}
}

// join attaches the caller to the running obtain of key, starting one when there is none.
func (s *Store) join(ctx context.Context, key string, req domain.ArtifactRequest) (*flight, <-chan singleflight.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		s.flights[key] = f
	}
	f.waiters++

	results := s.group.DoChan(key, func() (any, error) {
		defer s.land(key, f)
		return s.obtain(f.ctx, req)
	})
	return f, results
}

// leave detaches a caller. The last one out cancels the shared obtain, and later callers start afresh.
func (s *Store) leave(key string, f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if s.flights[key] == f {
		delete(s.flights, key)
		s.group.Forget(key)
	}
}

// land retires a finished obtain so that the next caller checks the cache again.
func (s *Store) land(key string, f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flights[key] == f {
		delete(s.flights, key)
		s.group.Forget(key)
	}
}

func (s *Store) obtain(ctx context.Context, req domain.ArtifactRequest) (domain.Artifact, error) {
	path := s.Path(req)
	artifact := domain.Artifact{Path: path, Checksum: req.Checksum, Compression: req.Compression}

	sum, err := fileChecksum(path)
	switch {
	case err == nil && strings.EqualFold(sum, req.Checksum):
		artifact.Cached = true
		return artifact, nil
	case err == nil:
		s.logger.Warn("discarding corrupt cached artifact " + path)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return domain.Artifact{}, s.fetchError(req, "", zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", path))
		}
	case !errors.Is(err, fs.ErrNotExist):
		return domain.Artifact{}, s.fetchError(req, "", zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", path))
	}

	url := s.downloader.URL(req)
	if err := s.download(ctx, url, path, req.Checksum); err != nil {
		return domain.Artifact{}, s.fetchError(req, url, err)
	}
	return artifact, nil
}

// download writes url into a temporary sibling of path, verifies it and renames it into place.
func (s *Store) download(ctx context.Context, url, path, checksum string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheCreateFailed.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+domain.PartialSuffix)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", dir)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := s.downloader.Download(ctx, url, tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", tmp.Name())
	}

	got, err := fileChecksum(tmp.Name())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", tmp.Name())
	}
	if !strings.EqualFold(got, checksum) {
		return &domain.ChecksumError{Path: url, Expected: checksum, Got: got}
	}

	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", path)
	}
	return nil
}

func (s *Store) fetchError(req domain.ArtifactRequest, url string, err error) error {
	return &domain.FetchError{Package: req.Name, Version: req.Version, URL: url, Err: err}
}

// fileChecksum returns the hex sha256 digest of the file at path.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is derived from the cache root
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
