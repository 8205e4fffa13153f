// Package provenancepb is the Go binding for provenance.proto (spec
// §6.1). protoc is unavailable in this build environment, so the
// generated-code shape below is hand-written rather than produced by
// protoc-gen-go/protoc-gen-go-grpc: message types are plain structs (see
// codec.go for how they go on the wire) and the client/server stubs in
// provenance_grpc.go mirror protoc-gen-go-grpc's output shape so callers
// see the same surface a generated package would expose.
package provenancepb

import "time"

// WhereIsOneRequest asks for the provenance of a single content SWHID.
type WhereIsOneRequest struct {
	Swhid string `json:"swhid"`
	Mask  string `json:"mask,omitempty"`
}

// WhereAreOneRequest asks for the provenance of a batch of content
// SWHIDs, streamed back as they resolve.
type WhereAreOneRequest struct {
	Swhid []string `json:"swhid"`
	Mask  string   `json:"mask,omitempty"`
}

// WhereIsOneResult echoes the input SWHID alongside whichever of Anchor
// and Origin the mask selected and the engine could resolve.
type WhereIsOneResult struct {
	Swhid            string    `json:"swhid"`
	Anchor           string    `json:"anchor,omitempty"`
	Origin           string    `json:"origin,omitempty"`
	CommitterDate    time.Time `json:"committer_date,omitempty"`
	HasCommitterDate bool      `json:"has_committer_date,omitempty"`
}
