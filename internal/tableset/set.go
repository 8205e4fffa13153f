package tableset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/column"
)

// Set is the query engine's live view of the table-set directory: a
// single current *Generation behind a pointer swapped under a
// readers-writer lock held only for the swap itself (spec §5 "Table sets
// are swapped atomically by flipping a single shared pointer under a
// readers-writer lock held for the swap only"), plus garbage collection of
// superseded generations once the grace period since their retirement has
// elapsed; queries still holding a retired generation are not tracked.
type Set struct {
	root       string
	gcGrace    time.Duration
	readerCap  int
	pageCap    int
	mu         sync.RWMutex
	current    *Generation
	retiredMu  sync.Mutex
	retired    map[string]retiredGeneration
}

type retiredGeneration struct {
	gen       *Generation
	retiredAt time.Time
}

// Open loads the newest promoted generation under root, if any, and
// returns a Set ready to serve queries. readerCap/pageCap size the
// per-generation LRU caches (footer+EF reader cache, decoded-page cache).
func Open(root string, gcGrace time.Duration, readerCap, pageCap int) (*Set, error) {
	s := &Set{
		root:      root,
		gcGrace:   gcGrace,
		readerCap: readerCap,
		pageCap:   pageCap,
		retired:   make(map[string]retiredGeneration),
	}
	ids, err := ListGenerationIDs(root)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return s, nil
	}
	latest := ids[len(ids)-1]
	gen, err := s.openByID(latest)
	if err != nil {
		return nil, err
	}
	s.current = gen
	return s, nil
}

func (s *Set) openByID(id string) (*Generation, error) {
	caches, err := column.NewCaches(s.readerCap, s.pageCap)
	if err != nil {
		return nil, fmt.Errorf("tableset: new caches for generation %s: %w", id, err)
	}
	gen, err := openGeneration(id, s.generationDir(id), caches)
	if err != nil {
		caches.Close()
		return nil, err
	}
	return gen, nil
}

func (s *Set) generationDir(id string) string {
	return filepath.Join(s.root, id)
}

// Current returns the currently live generation, or nil if none has ever
// been promoted.
func (s *Set) Current() *Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Refresh re-scans root for a newer generation than the one currently
// live, and if found, swaps it in and retires the old one for
// grace-period GC. Callers run this on a ticker (e.g. after every
// successful builder run writes a new generation).
func (s *Set) Refresh() error {
	ids, err := ListGenerationIDs(s.root)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	latest := ids[len(ids)-1]

	s.mu.RLock()
	already := s.current != nil && s.current.ID == latest
	s.mu.RUnlock()
	if already {
		return nil
	}

	next, err := s.openByID(latest)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.current
	s.current = next
	s.mu.Unlock()

	if old != nil {
		s.retire(old)
	}
	return nil
}

func (s *Set) retire(gen *Generation) {
	s.retiredMu.Lock()
	s.retired[gen.ID] = retiredGeneration{gen: gen, retiredAt: time.Now()}
	s.retiredMu.Unlock()
}

// CollectGarbage closes and removes every retired generation whose grace
// period has elapsed. On-disk directories this Set never retired (such as
// orphaned staging leftovers) are not removed. It is safe to call
// periodically from a background goroutine.
func (s *Set) CollectGarbage(ctx context.Context) error {
	now := time.Now()

	s.retiredMu.Lock()
	var expired []retiredGeneration
	for id, rg := range s.retired {
		if now.Sub(rg.retiredAt) >= s.gcGrace {
			expired = append(expired, rg)
			delete(s.retired, id)
		}
	}
	s.retiredMu.Unlock()

	for _, rg := range expired {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rg.gen.caches.Close()
		if err := os.RemoveAll(rg.gen.Dir); err != nil {
			return fmt.Errorf("tableset: remove expired generation %s: %w", rg.gen.ID, err)
		}
	}
	return nil
}
