// Package grpcserver adapts internal/provenance.Engine to the
// ProvenanceService gRPC facade (spec §6.1), translating the internal
// error taxonomy (internal/types) into standard gRPC status codes and
// enforcing the field-mask wire contract.
//
// Grounded on the teacher's internal/rpc package (the same "thin server
// wraps a domain engine, error taxonomy maps to status codes" shape used
// for the `bd` daemon's own request handlers).
package grpcserver

import (
	"context"
	"errors"
	"io"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/softwareheritage/swh-provenance/api/provenancepb"
	"github.com/softwareheritage/swh-provenance/internal/provenance"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// Server implements provenancepb.ProvenanceServiceServer over one query
// engine.
type Server struct {
	provenancepb.UnimplementedProvenanceServiceServer
	engine *provenance.Engine
}

// New builds a Server answering queries through engine.
func New(engine *provenance.Engine) *Server {
	return &Server{engine: engine}
}

// WhereIsOne implements ProvenanceService.WhereIsOne (spec §6.1).
func (s *Server) WhereIsOne(ctx context.Context, req *provenancepb.WhereIsOneRequest) (*provenancepb.WhereIsOneResult, error) {
	id, err := types.ParseSWHID(req.Swhid)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	mask := parseMask(req.Mask)

	result, err := s.engine.WhereIsOne(ctx, id, mask)
	if err != nil {
		return nil, toStatusError(err)
	}
	return toWireResult(result), nil
}

// WhereAreOne implements ProvenanceService.WhereAreOne (spec §6.1),
// streaming one result per requested SWHID as it resolves. A per-item
// failure does not abort the stream (spec §7): it is dropped from the
// stream, not surfaced as a stream-ending error, since there is no
// per-item error frame in the wire contract.
func (s *Server) WhereAreOne(req *provenancepb.WhereAreOneRequest, stream provenancepb.ProvenanceService_WhereAreOneServer) error {
	ids := make([]types.SWHID, 0, len(req.Swhid))
	for _, raw := range req.Swhid {
		id, err := types.ParseSWHID(raw)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		ids = append(ids, id)
	}
	mask := parseMask(req.Mask)

	results, errs := s.engine.WhereAreOne(stream.Context(), ids, mask)
	for i, result := range results {
		if errs[i] != nil {
			if types.IsCancelled(errs[i]) {
				return toStatusError(errs[i])
			}
			continue
		}
		if err := stream.Send(toWireResult(result)); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	return nil
}

func parseMask(raw string) types.FieldMask {
	if strings.TrimSpace(raw) == "" {
		return types.FullFieldMask()
	}
	var mask types.FieldMask
	for _, field := range strings.Split(raw, ",") {
		switch strings.TrimSpace(field) {
		case "swhid":
			mask.SWHID = true
		case "anchor":
			mask.Anchor = true
		case "origin":
			mask.Origin = true
		}
	}
	return mask
}

func toWireResult(r types.ProvenanceResult) *provenancepb.WhereIsOneResult {
	out := &provenancepb.WhereIsOneResult{Swhid: r.SWHID.String()}
	if r.Anchor != nil {
		out.Anchor = r.Anchor.String()
	}
	if r.Origin != nil {
		out.Origin = *r.Origin
	}
	return out
}

// toStatusError maps the internal error taxonomy (spec §7) onto standard
// gRPC status codes (spec §6.1).
func toStatusError(err error) error {
	switch {
	case types.IsCancelled(err):
		if errors.Is(err, context.DeadlineExceeded) {
			return status.Error(codes.DeadlineExceeded, err.Error())
		}
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, types.ErrInputError):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrTransient):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, types.ErrCorruption):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
