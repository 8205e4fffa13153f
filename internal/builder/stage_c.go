package builder

import (
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// IsFrontier implements Stage C (spec §4.1 "compute-directory-frontier"):
// directory dir is a frontier directory with respect to revision
// committer date revisionDate iff every content reachable beneath it was
// already known strictly before that revision, i.e.
// max_leaf(dir) < revisionDate. A directory with no dated content at all
// (max_leaf unset) is never a frontier, since "strictly before" cannot
// hold vacuously true here: spec §8's invariant
// "max_leaf(d) < committer_date(r)" is only meaningful for directories
// that do have a max_leaf.
func IsFrontier(maxLeaf *MaxLeafTimestamps, dir types.NodeID, revisionDate int64) bool {
	v, ok := maxLeaf.Get(dir)
	if !ok {
		return false
	}
	return v < revisionDate
}
