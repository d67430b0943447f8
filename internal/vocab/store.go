package vocab

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wildgold/internal/logging"

	"golang.org/x/sync/singleflight"
)

// Snapshot is an immutable view of the loaded vocabulary.
type Snapshot struct {
	Signature string
	Mapping   Mapping
	BaseDirs  []string
	LoadedAt  time.Time
}

// Persister stores snapshots across processes, keyed by signature.
type Persister interface {
	Get(ctx context.Context, signature string) (*Snapshot, bool, error)
	Put(ctx context.Context, snap *Snapshot) error
}

// Store is the process-wide vocabulary cache. It is safe for concurrent use:
// refreshes are deduplicated and the (signature, mapping) pair is swapped as
// one Snapshot.
type Store struct {
	root      string
	opts      Options
	persister Persister

	mu   sync.RWMutex
	snap *Snapshot

	group   singleflight.Group
	reloads atomic.Int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister makes refreshes consult p before reading files.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) {
		s.persister = p
	}
}

// NewStore creates a store rooted at root. Nothing is read until the first
// Snapshot or Refresh call.
func NewStore(root string, opts Options, options ...StoreOption) *Store {
	s := &Store{root: root, opts: opts}
	for _, o := range options {
		o(s)
	}
	return s
}

// Root returns the host root the store discovers from.
func (s *Store) Root() string {
	return s.root
}

// Options returns the discovery options.
func (s *Store) Options() Options {
	return s.opts
}

// BaseDirs discovers the current base directories without loading them.
func (s *Store) BaseDirs() []string {
	return DiscoverBaseDirs(s.root, s.opts)
}

// Signature computes the on-disk signature without loading anything.
func (s *Store) Signature() string {
	return Signature(s.BaseDirs(), s.opts)
}

// Current returns the cached snapshot without touching the filesystem.
// It is nil before the first refresh.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reloads reports how many times the mapping was rebuilt.
func (s *Store) Reloads() int64 {
	return s.reloads.Load()
}

// Snapshot returns the current vocabulary, reloading it first if the
// signature of the files on disk no longer matches the cached one.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, _, err := s.Refresh(ctx, false)
	return snap, err
}

// Refresh recomputes the signature and reloads on mismatch, or always when
// force is set. It reports whether a new snapshot was installed.
func (s *Store) Refresh(ctx context.Context, force bool) (*Snapshot, bool, error) {
	key := "refresh"
	if force {
		key = "force"
	}
	type result struct {
		snap    *Snapshot
		changed bool
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		snap, changed, err := s.refresh(ctx, force)
		return result{snap, changed}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return r.snap, r.changed, nil
}

func (s *Store) refresh(ctx context.Context, force bool) (*Snapshot, bool, error) {
	dirs := s.BaseDirs()
	sig := Signature(dirs, s.opts)

	if cur := s.Current(); cur != nil && !force && cur.Signature == sig {
		return cur, false, nil
	}

	logging.VocabDebug("Signature changed, refreshing (dirs=%d sig=%.12s)", len(dirs), sig)

	snap, err := s.build(ctx, dirs, sig)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.reloads.Add(1)
	return snap, true, nil
}

func (s *Store) build(ctx context.Context, dirs []string, sig string) (*Snapshot, error) {
	if s.persister != nil {
		snap, ok, err := s.persister.Get(ctx, sig)
		if err != nil {
			logging.VocabWarn("snapshot lookup failed, reading files: %v", err)
		} else if ok {
			logging.Vocab("Restored snapshot %.12s from persistent store", sig)
			snap.BaseDirs = dirs
			return snap, nil
		}
	}

	mapping, err := Load(ctx, dirs, s.opts)
	if err != nil {
		return nil, fmt.Errorf("refresh vocabulary: %w", err)
	}
	snap := &Snapshot{
		Signature: sig,
		Mapping:   mapping,
		BaseDirs:  dirs,
		LoadedAt:  time.Now(),
	}

	if s.persister != nil {
		if err := s.persister.Put(ctx, snap); err != nil {
			logging.VocabWarn("snapshot persist failed: %v", err)
		}
	}
	return snap, nil
}
