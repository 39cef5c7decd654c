// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package opstest provides an in-memory google.longrunning.Operations
// server reachable over an in-process gRPC connection.
package opstest

import (
	"context"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Server is a scripted Operations service. Each operation has a list of
// states; every GetOperation returns the next state and the last state
// repeats.
type Server struct {
	longrunningpb.UnimplementedOperationsServer

	mu        sync.Mutex
	names     []string
	states    map[string][]*longrunningpb.Operation
	errs      map[string][]error
	gets      map[string]int
	cancelled []string
	deleted   []string
	// PageSize bounds ListOperations pages when the request sets no size.
	PageSize int
}

// NewServer returns an empty Server.
func NewServer() *Server {
	return &Server{
		states:   map[string][]*longrunningpb.Operation{},
		errs:     map[string][]error{},
		gets:     map[string]int{},
		PageSize: 2,
	}
}

// Add scripts the successive states of one operation. All states must
// share a name.
func (s *Server) Add(states ...*longrunningpb.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := states[0].GetName()
	if _, ok := s.states[name]; !ok {
		s.names = append(s.names, name)
	}
	s.states[name] = states
}

// FailNext makes the next GetOperation calls for name return errs, in
// order, before any state is served.
func (s *Server) FailNext(name string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[name] = append(s.errs[name], errs...)
}

// Gets returns the number of GetOperation calls for name.
func (s *Server) Gets(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[name]
}

// Cancelled returns the names passed to CancelOperation.
func (s *Server) Cancelled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cancelled)
}

// Deleted returns the names passed to DeleteOperation.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deleted)
}

// GetOperation serves the next scripted state of the operation.
func (s *Server) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest) (*longrunningpb.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := req.GetName()
	states, ok := s.states[name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "operation %q not found", name)
	}
	s.gets[name]++
	if errs := s.errs[name]; len(errs) > 0 {
		s.errs[name] = errs[1:]
		return nil, errs[0]
	}
	op := states[0]
	if len(states) > 1 {
		s.states[name] = states[1:]
	}
	return op, nil
}

// CancelOperation records the request and finishes the operation with a
// CANCELLED status.
func (s *Server) CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := req.GetName()
	states, ok := s.states[name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "operation %q not found", name)
	}
	s.cancelled = append(s.cancelled, name)
	last := states[len(states)-1]
	if !last.GetDone() {
		s.states[name] = []*longrunningpb.Operation{{
			Name:     name,
			Metadata: last.GetMetadata(),
			Done:     true,
			Result: &longrunningpb.Operation_Error{
				Error: &spb.Status{Code: int32(codes.Canceled), Message: "cancelled by user"},
			},
		}}
	}
	return &emptypb.Empty{}, nil
}

// DeleteOperation records the request and forgets the operation.
func (s *Server) DeleteOperation(ctx context.Context, req *longrunningpb.DeleteOperationRequest) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := req.GetName()
	if _, ok := s.states[name]; !ok {
		return nil, status.Errorf(codes.NotFound, "operation %q not found", name)
	}
	s.deleted = append(s.deleted, name)
	delete(s.states, name)
	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
	return &emptypb.Empty{}, nil
}

// ListOperations pages through the operations whose name starts with the
// request name, in the order they were added. The filters "done=true" and
// "done=false" are supported.
func (s *Server) ListOperations(ctx context.Context, req *longrunningpb.ListOperationsRequest) (*longrunningpb.ListOperationsResponse, error) {
	filter := req.GetFilter()
	if filter != "" && filter != "done=true" && filter != "done=false" {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported filter %q", filter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*longrunningpb.Operation
	for _, name := range s.names {
		if !strings.HasPrefix(name, req.GetName()) {
			continue
		}
		states := s.states[name]
		op := states[len(states)-1]
		if (filter == "done=true" && !op.GetDone()) || (filter == "done=false" && op.GetDone()) {
			continue
		}
		matched = append(matched, op)
	}
	start := 0
	if tok := req.GetPageToken(); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > len(matched) {
			return nil, status.Errorf(codes.InvalidArgument, "bad page token %q", tok)
		}
		start = n
	}
	size := int(req.GetPageSize())
	if size <= 0 {
		size = s.PageSize
	}
	end := min(start+size, len(matched))
	resp := &longrunningpb.ListOperationsResponse{Operations: matched[start:end]}
	if end < len(matched) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	return resp, nil
}

// Dial serves the given registrations on an in-process listener and
// returns a client connection to it. Both are closed when the test ends.
func Dial(t testing.TB, register ...func(*grpc.Server)) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	for _, r := range register {
		r(srv)
	}
	go srv.Serve(lis)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
	})
	return conn
}

// Register returns a registration for Dial that serves s.
func (s *Server) Register() func(*grpc.Server) {
	return func(g *grpc.Server) {
		longrunningpb.RegisterOperationsServer(g, s)
	}
}

// Running returns an unfinished operation with the given metadata.
func Running(t testing.TB, name string, metadata proto.Message) *longrunningpb.Operation {
	t.Helper()
	return &longrunningpb.Operation{Name: name, Metadata: pack(t, metadata)}
}

// Succeeded returns a finished operation with the given response.
func Succeeded(t testing.TB, name string, metadata, response proto.Message) *longrunningpb.Operation {
	t.Helper()
	return &longrunningpb.Operation{
		Name:     name,
		Metadata: pack(t, metadata),
		Done:     true,
		Result:   &longrunningpb.Operation_Response{Response: pack(t, response)},
	}
}

// Failed returns a finished operation carrying st as its error.
func Failed(t testing.TB, name string, metadata proto.Message, st *status.Status) *longrunningpb.Operation {
	t.Helper()
	return &longrunningpb.Operation{
		Name:     name,
		Metadata: pack(t, metadata),
		Done:     true,
		Result:   &longrunningpb.Operation_Error{Error: st.Proto()},
	}
}

func pack(t testing.TB, m proto.Message) *anypb.Any {
	t.Helper()
	if m == nil {
		return nil
	}
	a, err := anypb.New(m)
	if err != nil {
		t.Fatal(err)
	}
	return a
}
