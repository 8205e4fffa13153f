package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

// Fixture is an in-memory Client used by `gen-test-database` and by
// builder/query-engine tests. Callers build it bottom-up (contents and
// directories before the revisions that reference them), which gives
// AllDirectoriesReverseTopological its required children-before-parents
// order for free, the same way a test fixture is threaded through the
// teacher's in-memory storage backends (internal/storage/ephemeral) one
// Add call at a time rather than loaded from a file.
type Fixture struct {
	mu sync.RWMutex

	nextNodeID types.NodeID

	swhidToNode map[types.SWHID]types.NodeID
	nodeToSWHID map[types.NodeID]types.SWHID

	dirEntries   map[types.NodeID][]DirEntry
	dirOrder     []types.NodeID // insertion order == children-before-parents
	revisionRoot map[types.NodeID]types.NodeID

	committerDate map[types.NodeID]time.Time
	allRevisions  []types.NodeID

	// originsByRevision holds, for each revision, the origin URLs whose
	// snapshot transitively reaches it (spec §6.4).
	originsByRevision map[types.NodeID][]string
}

// NewFixture returns an empty fixture graph.
func NewFixture() *Fixture {
	return &Fixture{
		swhidToNode:       make(map[types.SWHID]types.NodeID),
		nodeToSWHID:       make(map[types.NodeID]types.SWHID),
		dirEntries:        make(map[types.NodeID][]DirEntry),
		revisionRoot:      make(map[types.NodeID]types.NodeID),
		committerDate:     make(map[types.NodeID]time.Time),
		originsByRevision: make(map[types.NodeID][]string),
	}
}

func (f *Fixture) allocate(id types.SWHID) types.NodeID {
	f.nextNodeID++
	node := f.nextNodeID
	f.swhidToNode[id] = node
	f.nodeToSWHID[node] = id
	return node
}

// AddContent registers a content node and returns its node-id.
func (f *Fixture) AddContent(id types.SWHID) types.NodeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocate(id)
}

// AddDirectory registers a directory node with the given entries. Entries
// must reference already-registered nodes (contents or directories added
// earlier), so that repeated AddDirectory calls naturally produce
// children-before-parents order.
func (f *Fixture) AddDirectory(id types.SWHID, entries []DirEntry) types.NodeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	node := f.allocate(id)
	f.dirEntries[node] = entries
	f.dirOrder = append(f.dirOrder, node)
	return node
}

// AddRevision registers a revision node with the given root directory and
// optional committer date (hasDate=false models spec §3's "may be
// missing").
func (f *Fixture) AddRevision(id types.SWHID, root types.NodeID, date time.Time, hasDate bool) types.NodeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	node := f.allocate(id)
	f.revisionRoot[node] = root
	if hasDate {
		f.committerDate[node] = date
	}
	f.allRevisions = append(f.allRevisions, node)
	return node
}

// AddSnapshot registers an origin whose snapshot points (possibly
// transitively, but the fixture only models direct branch pointers) at the
// given revisions.
func (f *Fixture) AddSnapshot(originURL string, revisions ...types.NodeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rev := range revisions {
		f.originsByRevision[rev] = append(f.originsByRevision[rev], originURL)
	}
}

func (f *Fixture) ResolveSWHID(_ context.Context, id types.SWHID) (types.NodeID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	node, ok := f.swhidToNode[id]
	if !ok {
		return types.NilNodeID, fmt.Errorf("%w: swhid %s", types.ErrNotFound, id)
	}
	return node, nil
}

func (f *Fixture) ResolveNodeID(_ context.Context, node types.NodeID) (types.SWHID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.nodeToSWHID[node]
	if !ok {
		return types.SWHID{}, fmt.Errorf("%w: node %d", types.ErrNotFound, node)
	}
	return id, nil
}

func (f *Fixture) RevisionRoot(_ context.Context, revision types.NodeID) (types.NodeID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	root, ok := f.revisionRoot[revision]
	if !ok {
		return types.NilNodeID, fmt.Errorf("%w: revision %d", types.ErrNotFound, revision)
	}
	return root, nil
}

func (f *Fixture) DirectoryEntries(_ context.Context, dir types.NodeID) ([]DirEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entries, ok := f.dirEntries[dir]
	if !ok {
		return nil, fmt.Errorf("%w: directory %d", types.ErrNotFound, dir)
	}
	out := make([]DirEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (f *Fixture) CommitterDate(_ context.Context, revision types.NodeID) (time.Time, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, known := f.revisionRoot[revision]; !known {
		return time.Time{}, false, fmt.Errorf("%w: revision %d", types.ErrNotFound, revision)
	}
	date, ok := f.committerDate[revision]
	return date, ok, nil
}

func (f *Fixture) OriginForRevision(_ context.Context, revision types.NodeID) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	origins := f.originsByRevision[revision]
	if len(origins) == 0 {
		return "", false, nil
	}
	return origins[0], true, nil
}

func (f *Fixture) AllRevisions(_ context.Context) ([]types.NodeID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]types.NodeID, len(f.allRevisions))
	copy(out, f.allRevisions)
	return out, nil
}

func (f *Fixture) AllDirectoriesReverseTopological(_ context.Context) ([]types.NodeID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]types.NodeID, len(f.dirOrder))
	copy(out, f.dirOrder)
	return out, nil
}

func (f *Fixture) NodeCount(_ context.Context) (uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint64(f.nextNodeID) + 1, nil
}

var _ Client = (*Fixture)(nil)
