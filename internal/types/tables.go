package types

import "time"

// NodeRow is one row of the `nodes` table: node-id -> SWHID (spec §6.3).
type NodeRow struct {
	NodeID NodeID
	SWHID  SWHID
}

// FrontierDirRow is one row of frontier_directories_in_revisions (FDIR).
// Primary key: FrontierDir.
type FrontierDirRow struct {
	FrontierDir NodeID
	Revision    NodeID
	Path        Path
}

// ContentInFrontierRow is one row of contents_in_frontier_directories
// (CFD). Primary key: Content.
type ContentInFrontierRow struct {
	Content     NodeID
	FrontierDir NodeID
	Path        Path
}

// ContentInRevisionRow is one row of
// contents_in_revisions_without_frontiers (CRNF). Primary key: Content.
type ContentInRevisionRow struct {
	Content  NodeID
	Revision NodeID
	Path     Path
}

// ProvenanceTuple is one candidate (revision, path) yielded by either
// resolution branch, before enrichment (spec §4.2 steps 2-4).
type ProvenanceTuple struct {
	Revision NodeID
	Path     Path
}

// EnrichedTuple is a ProvenanceTuple after origin/date enrichment, used as
// the sort key for the tie-break rule fixed by spec §4.2/§9:
// (earliest_date, revision_swhid, origin_url, path).
type EnrichedTuple struct {
	Revision     NodeID
	RevisionSWHID SWHID
	Path         Path
	CommitterDate time.Time
	HasDate      bool
	Origin       string
	HasOrigin    bool
}

// ProvenanceResult is the public result of where_is_one / where_are_one
// (spec §4.2). Anchor and Origin are both optional; their absence together
// signals "no known provenance" (spec §6.1).
type ProvenanceResult struct {
	SWHID  SWHID
	Anchor *SWHID
	Origin *string
}

// Empty reports whether the result carries no provenance information.
func (r ProvenanceResult) Empty() bool {
	return r.Anchor == nil && r.Origin == nil
}

// FieldMask selects which optional fields of a ProvenanceResult the caller
// wants populated (spec §6.1: "field mask (comma list over
// swhid,anchor,origin)").
type FieldMask struct {
	SWHID  bool
	Anchor bool
	Origin bool
}

// FullFieldMask requests every field.
func FullFieldMask() FieldMask {
	return FieldMask{SWHID: true, Anchor: true, Origin: true}
}

// Apply zeroes out fields the mask does not select.
func (m FieldMask) Apply(r ProvenanceResult) ProvenanceResult {
	if !m.Anchor {
		r.Anchor = nil
	}
	if !m.Origin {
		r.Origin = nil
	}
	return r
}
