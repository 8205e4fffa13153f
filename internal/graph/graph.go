// Package graph defines the upstream graph collaborator contract (spec
// §6.4): SWHID<->node-id resolution, typed successor iteration, committer
// timestamps, and origin resolution. The real graph service is explicitly
// out of scope for this repository (spec §1); this package only carries
// the contract plus an in-memory fixture implementation used by
// `gen-test-database` and by the builder/query-engine tests.
//
// Grounded on internal/storage/provider.go's interface-plus-adapter shape
// (a full `Storage` interface narrowed by a `StorageProvider` adapter for
// callers that need less) and internal/storage/factory's registry-of-
// backends idiom, applied here to "graph client" instead of "issue store".
package graph

import (
	"context"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

// DirEntry is one named successor of a directory node: either a content
// (leaf) or a nested directory.
type DirEntry struct {
	Name   []byte
	Target types.NodeID
	Kind   types.NodeKind // types.KindContent or types.KindDirectory
}

// Client is the capability set the index builder and query engine require
// from the graph collaborator (spec §6.4).
type Client interface {
	// ResolveSWHID resolves a SWHID to its node-id in this snapshot.
	// Returns an error wrapping types.ErrNotFound if the SWHID is unknown.
	ResolveSWHID(ctx context.Context, id types.SWHID) (types.NodeID, error)

	// ResolveNodeID is the inverse of ResolveSWHID.
	ResolveNodeID(ctx context.Context, node types.NodeID) (types.SWHID, error)

	// RevisionRoot returns the root directory node-id of a revision.
	RevisionRoot(ctx context.Context, revision types.NodeID) (types.NodeID, error)

	// DirectoryEntries returns the named successors of a directory node.
	DirectoryEntries(ctx context.Context, dir types.NodeID) ([]DirEntry, error)

	// CommitterDate returns a revision's committer date. ok is false when
	// the graph has no date for this revision (spec §3: "may be missing
	// -> revision excluded from timestamp aggregations").
	CommitterDate(ctx context.Context, revision types.NodeID) (t time.Time, ok bool, err error)

	// OriginForRevision returns one origin URL reachable via a snapshot
	// that transitively points to the given revision, chosen arbitrarily
	// but deterministically by the graph collaborator. ok is false if no
	// such origin exists.
	OriginForRevision(ctx context.Context, revision types.NodeID) (url string, ok bool, err error)

	// AllRevisions iterates every revision node-id in the snapshot, for
	// the index builder's Stage A/D parallel tree walks.
	AllRevisions(ctx context.Context) ([]types.NodeID, error)

	// AllDirectoriesReverseTopological iterates every directory node-id in
	// the snapshot in reverse topological order (children before parents),
	// for Stage B's max_leaf aggregation.
	AllDirectoriesReverseTopological(ctx context.Context) ([]types.NodeID, error)

	// NodeCount returns one past the largest node-id assigned in this
	// snapshot, sizing the builder's dense per-node-id arrays (spec §5:
	// "shared arrays... mutated with atomic min/max on 64-bit slots").
	NodeCount(ctx context.Context) (uint64, error)
}
