package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// state names the step a single SWHID's resolution is in. Exposed for
// logging and metrics, not part of the public API.
type state int

const (
	stateResolving state = iota
	stateScanning
	stateMerging
	stateEnriching
	stateDone
	stateEmpty
)

func (s state) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateScanning:
		return "scanning"
	case stateMerging:
		return "merging"
	case stateEnriching:
		return "enriching"
	case stateDone:
		return "done"
	case stateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// resolveOne drives a single SWHID through the per-node resolution state
// machine (spec §4.2): Resolving -> Scanning -> Merging -> Enriching ->
// Done|Empty. The steps run in sequence inside this function; st names the
// current step and is folded into any error returned from it.
func resolveOne(ctx context.Context, client graph.Client, gen *tableset.Generation, id types.SWHID) (types.ProvenanceResult, error) {
	st := stateResolving
	content, err := resolveContent(ctx, client, gen, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.ProvenanceResult{SWHID: id}, nil
		}
		return types.ProvenanceResult{}, fmt.Errorf("provenance: %s: %w", st, err)
	}

	st = stateScanning
	direct, err := directBranch(ctx, gen, content)
	if err != nil {
		return types.ProvenanceResult{}, fmt.Errorf("provenance: %s: %w", st, err)
	}
	frontier, err := frontierBranch(ctx, gen, content)
	if err != nil {
		return types.ProvenanceResult{}, fmt.Errorf("provenance: %s: %w", st, err)
	}

	st = stateMerging
	candidates := dedupeTuples(append(direct, frontier...))
	if len(candidates) == 0 {
		return types.ProvenanceResult{SWHID: id}, nil
	}

	st = stateEnriching
	enriched, err := enrich(ctx, client, gen, candidates)
	if err != nil {
		return types.ProvenanceResult{}, fmt.Errorf("provenance: %s: %w", st, err)
	}
	sortTieBreak(enriched)

	st = stateDone
	best := enriched[0]
	result := types.ProvenanceResult{SWHID: id, Anchor: &best.RevisionSWHID}
	if best.HasOrigin {
		origin := best.Origin
		result.Origin = &origin
	}
	return result, nil
}
