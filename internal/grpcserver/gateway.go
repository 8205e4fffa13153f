package grpcserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/metadata"

	"github.com/softwareheritage/swh-provenance/api/provenancepb"
)

// Gateway is an HTTP/JSON bridge onto a Server, grounded on the teacher's
// HTTPServer wrapping an RPC server with a plain net/http mux rather than
// generated grpc-gateway stubs: the wire messages here (api/provenancepb)
// are hand-written structs, not protoc-gen-go protobuf types, so the
// bridge uses runtime.ServeMux purely as a path-pattern router
// (HandlePath) and marshals with encoding/json instead of runtime.JSONPb,
// which requires real proto.Message values.
type Gateway struct {
	server *Server
	mux    *runtime.ServeMux
}

// NewGateway builds an HTTP/JSON bridge calling server in-process, the
// way the teacher's HTTPServer calls its RPC server's handleRequest
// directly rather than dialing back over the wire.
func NewGateway(server *Server) *Gateway {
	g := &Gateway{server: server, mux: runtime.NewServeMux()}

	g.mux.HandlePath(http.MethodGet, "/v1/where-is-one/{swhid}", g.handleWhereIsOne)
	g.mux.HandlePath(http.MethodGet, "/v1/where-are-one", g.handleWhereAreOne)
	g.mux.HandlePath(http.MethodGet, "/healthz", g.handleHealthz)

	return g
}

// ServeHTTP implements http.Handler so Gateway can be registered directly
// on an http.Server.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

func (g *Gateway) handleWhereIsOne(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	req := &provenancepb.WhereIsOneRequest{
		Swhid: pathParams["swhid"],
		Mask:  r.URL.Query().Get("mask"),
	}
	result, err := g.server.WhereIsOne(r.Context(), req)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleWhereAreOne accepts repeated ?swhid= query parameters and streams
// the Server.WhereAreOne results back as a JSON array, since an HTTP/JSON
// bridge has no equivalent of a gRPC server-streaming response.
func (g *Gateway) handleWhereAreOne(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := &provenancepb.WhereAreOneRequest{
		Swhid: r.URL.Query()["swhid"],
		Mask:  r.URL.Query().Get("mask"),
	}
	collector := &collectingStream{ctx: r.Context()}
	if err := g.server.WhereAreOne(req, collector); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collector.results)
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGatewayError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case strings.Contains(msg, "InvalidArgument"):
		status = http.StatusBadRequest
	case strings.Contains(msg, "NotFound"):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// collectingStream adapts the server-streaming WhereAreOne method to a
// single in-memory slice for the non-streaming HTTP bridge, implementing
// just enough of grpc.ServerStream for Server.WhereAreOne to drive it.
type collectingStream struct {
	ctx     context.Context
	results []*provenancepb.WhereIsOneResult
}

func (c *collectingStream) Send(m *provenancepb.WhereIsOneResult) error {
	c.results = append(c.results, m)
	return nil
}

func (c *collectingStream) Context() context.Context    { return c.ctx }
func (c *collectingStream) SetHeader(metadata.MD) error  { return nil }
func (c *collectingStream) SendHeader(metadata.MD) error { return nil }
func (c *collectingStream) SetTrailer(metadata.MD)       {}
func (c *collectingStream) SendMsg(interface{}) error    { return nil }
func (c *collectingStream) RecvMsg(interface{}) error    { return nil }
