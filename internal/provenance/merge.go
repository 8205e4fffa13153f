package provenance

import (
	"sort"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

// sortTieBreak orders enriched tuples by the fixed tie-break rule (spec
// §4.2, Open Question decision in §9): (earliest_date, revision_swhid,
// origin_url, path). Tuples without a committer date sort after every
// dated tuple, since "earliest" is undefined for them.
func sortTieBreak(tuples []types.EnrichedTuple) {
	sort.SliceStable(tuples, func(i, j int) bool {
		a, b := tuples[i], tuples[j]
		if a.HasDate != b.HasDate {
			return a.HasDate // dated tuples sort before undated ones
		}
		if a.HasDate && !a.CommitterDate.Equal(b.CommitterDate) {
			return a.CommitterDate.Before(b.CommitterDate)
		}
		if a.RevisionSWHID.String() != b.RevisionSWHID.String() {
			return a.RevisionSWHID.String() < b.RevisionSWHID.String()
		}
		if a.HasOrigin != b.HasOrigin {
			return a.HasOrigin
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return string(a.Path) < string(b.Path)
	})
}

// dedupeTuples drops (revision, path) duplicates the two branches might
// both contribute (e.g. a content reachable through two frontier
// directories that both land on the same revision and path).
func dedupeTuples(tuples []types.ProvenanceTuple) []types.ProvenanceTuple {
	seen := make(map[tupleKey]struct{}, len(tuples))
	out := make([]types.ProvenanceTuple, 0, len(tuples))
	for _, t := range tuples {
		key := tupleKey{revision: t.Revision, path: string(t.Path)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

type tupleKey struct {
	revision types.NodeID
	path     string
}
