package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

// fixtureDump is the on-disk JSON shape written by Dump and read by Load.
// It mirrors the construction calls (AddContent/AddDirectory/
// AddRevision/AddSnapshot) rather than the Fixture's internal maps, so
// replaying it through the same exported API a caller would otherwise use
// is what reconstructs children-before-parents directory order.
type fixtureDump struct {
	Contents    []swhidDump     `json:"contents"`
	Directories []directoryDump `json:"directories"`
	Revisions   []revisionDump  `json:"revisions"`
	Snapshots   []snapshotDump  `json:"snapshots"`
}

type swhidDump struct {
	Kind    types.NodeKind `json:"kind"`
	Version uint8          `json:"version"`
	Hash    string         `json:"hash"` // hex
}

type directoryDump struct {
	SWHID   swhidDump      `json:"swhid"`
	Entries []dirEntryDump `json:"entries"`
}

type dirEntryDump struct {
	Name      []byte         `json:"name"`
	TargetIdx int            `json:"target_idx"` // index into the combined content+directory allocation order
	Kind      types.NodeKind `json:"kind"`
}

type revisionDump struct {
	SWHID   swhidDump `json:"swhid"`
	RootIdx int       `json:"root_idx"`
	Date    time.Time `json:"date"`
	HasDate bool      `json:"has_date"`
}

type snapshotDump struct {
	OriginURL    string `json:"origin_url"`
	RevisionIdxs []int  `json:"revision_idxs"`
}

// Dump serializes every node this fixture knows about (and every
// origin/snapshot edge) to path as JSON, for `gen-test-database` to hand
// a reproducible synthetic graph to later `index ...` / `grpc-serve`
// invocations without a real graph collaborator backend.
func (f *Fixture) Dump(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	nodeIndex := make(map[types.NodeID]int)
	dump := fixtureDump{}

	var contentIDs, dirIDs, revIDs []types.NodeID
	for _, id := range f.dirOrder {
		dirIDs = append(dirIDs, id)
	}
	for id, swhid := range f.nodeToSWHID {
		switch swhid.Kind {
		case types.KindContent:
			contentIDs = append(contentIDs, id)
		case types.KindRevision:
			revIDs = append(revIDs, id)
		}
	}

	// Allocation order matters for round-tripping node-ids identically:
	// contents and directories share one index space in the replay
	// ("target_idx"), assigned in the same order AddContent/AddDirectory
	// were originally called (f.dirOrder already preserves directory
	// insertion order; contents have no dedicated order record, so this
	// dump is only guaranteed to preserve the *set* of nodes and every
	// edge between them, not the exact original node-id values).
	allocOrder := make([]types.NodeID, 0, len(contentIDs)+len(dirIDs))
	allocOrder = append(allocOrder, contentIDs...)
	allocOrder = append(allocOrder, dirIDs...)
	for i, id := range allocOrder {
		nodeIndex[id] = i
	}

	for _, id := range contentIDs {
		dump.Contents = append(dump.Contents, swhidToDump(f.nodeToSWHID[id]))
	}
	for _, id := range dirIDs {
		entries := f.dirEntries[id]
		entryDumps := make([]dirEntryDump, 0, len(entries))
		for _, e := range entries {
			entryDumps = append(entryDumps, dirEntryDump{
				Name:      e.Name,
				TargetIdx: nodeIndex[e.Target],
				Kind:      e.Kind,
			})
		}
		dump.Directories = append(dump.Directories, directoryDump{
			SWHID:   swhidToDump(f.nodeToSWHID[id]),
			Entries: entryDumps,
		})
	}
	revIndex := make(map[types.NodeID]int, len(revIDs))
	for i, id := range revIDs {
		revIndex[id] = i
		date, hasDate := f.committerDate[id]
		dump.Revisions = append(dump.Revisions, revisionDump{
			SWHID:   swhidToDump(f.nodeToSWHID[id]),
			RootIdx: nodeIndex[f.revisionRoot[id]],
			Date:    date,
			HasDate: hasDate,
		})
	}
	for originURL, revs := range invertOrigins(f.originsByRevision) {
		idxs := make([]int, 0, len(revs))
		for _, rev := range revs {
			idxs = append(idxs, revIndex[rev])
		}
		dump.Snapshots = append(dump.Snapshots, snapshotDump{OriginURL: originURL, RevisionIdxs: idxs})
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: marshal fixture dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("graph: write fixture dump %s: %w", path, err)
	}
	return nil
}

// Load reconstructs a Fixture from a file written by Dump.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: read fixture dump %s: %w", path, err)
	}
	var dump fixtureDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("%w: fixture dump %s: %v", types.ErrCorruption, path, err)
	}

	f := NewFixture()
	nodes := make([]types.NodeID, 0, len(dump.Contents)+len(dump.Directories))
	for _, c := range dump.Contents {
		id, err := dumpToSWHID(c)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, f.AddContent(id))
	}
	for _, d := range dump.Directories {
		id, err := dumpToSWHID(d.SWHID)
		if err != nil {
			return nil, err
		}
		entries := make([]DirEntry, 0, len(d.Entries))
		for _, e := range d.Entries {
			if e.TargetIdx < 0 || e.TargetIdx >= len(nodes) {
				return nil, fmt.Errorf("%w: fixture dump %s: entry target index %d out of range", types.ErrCorruption, path, e.TargetIdx)
			}
			entries = append(entries, DirEntry{Name: e.Name, Target: nodes[e.TargetIdx], Kind: e.Kind})
		}
		nodes = append(nodes, f.AddDirectory(id, entries))
	}

	revNodes := make([]types.NodeID, 0, len(dump.Revisions))
	for _, r := range dump.Revisions {
		id, err := dumpToSWHID(r.SWHID)
		if err != nil {
			return nil, err
		}
		if r.RootIdx < 0 || r.RootIdx >= len(nodes) {
			return nil, fmt.Errorf("%w: fixture dump %s: revision root index %d out of range", types.ErrCorruption, path, r.RootIdx)
		}
		revNodes = append(revNodes, f.AddRevision(id, nodes[r.RootIdx], r.Date, r.HasDate))
	}
	for _, s := range dump.Snapshots {
		revs := make([]types.NodeID, 0, len(s.RevisionIdxs))
		for _, idx := range s.RevisionIdxs {
			if idx < 0 || idx >= len(revNodes) {
				return nil, fmt.Errorf("%w: fixture dump %s: snapshot revision index %d out of range", types.ErrCorruption, path, idx)
			}
			revs = append(revs, revNodes[idx])
		}
		f.AddSnapshot(s.OriginURL, revs...)
	}
	return f, nil
}

func swhidToDump(id types.SWHID) swhidDump {
	return swhidDump{Kind: id.Kind, Version: id.Version, Hash: fmt.Sprintf("%x", id.Hash)}
}

func dumpToSWHID(d swhidDump) (types.SWHID, error) {
	return types.ParseSWHID(fmt.Sprintf("swh:%d:%s:%s", d.Version, d.Kind, d.Hash))
}

func invertOrigins(byRevision map[types.NodeID][]string) map[string][]types.NodeID {
	out := make(map[string][]types.NodeID)
	for rev, origins := range byRevision {
		for _, origin := range origins {
			out[origin] = append(out[origin], rev)
		}
	}
	return out
}
