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

package lrogrpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/google/go-cmp/cmp"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/googleapis/gax-lro/internal/opstest"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/retry/retrytest"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

const opName = "operations/build-1"

func metadata(s cloudbuildpb.Build_Status) *cloudbuildpb.BuildOperationMetadata {
	return &cloudbuildpb.BuildOperationMetadata{Build: &cloudbuildpb.Build{Id: "build-1", Status: s}}
}

func TestDecode(t *testing.T) {
	build := &cloudbuildpb.Build{Id: "build-1", Status: cloudbuildpb.Build_SUCCESS}
	op, err := Decode[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](
		opstest.Succeeded(t, opName, metadata(cloudbuildpb.Build_WORKING), build))
	if err != nil {
		t.Fatal(err)
	}
	if !op.Done() || op.Name() != opName {
		t.Errorf("Decode() = (done %v, name %q), want (true, %q)", op.Done(), op.Name(), opName)
	}
	got, err := op.Result()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(build, got, protocmp.Transform()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	md, ok := op.Metadata()
	if !ok {
		t.Fatal("Metadata() missing")
	}
	if diff := cmp.Diff(metadata(cloudbuildpb.Build_WORKING), md, protocmp.Transform()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRunning(t *testing.T) {
	op, err := Decode[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](
		opstest.Running(t, opName, nil))
	if err != nil {
		t.Fatal(err)
	}
	if op.Done() {
		t.Errorf("Done() = true, want false")
	}
	if _, ok := op.Metadata(); ok {
		t.Errorf("Metadata() present on an operation without metadata")
	}
}

func TestDecodeFailure(t *testing.T) {
	st, err := status.New(codes.ResourceExhausted, "quota").WithDetails(&errdetails.ErrorInfo{
		Reason: "QUOTA_EXCEEDED",
		Domain: "cloudbuild.googleapis.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	op, err := Decode[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](
		opstest.Failed(t, opName, nil, st))
	if err != nil {
		t.Fatal(err)
	}
	_, err = op.Result()
	var opErr *lro.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Result() error = %v, want *lro.OperationError", err)
	}
	var ae *apierror.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("Result() error = %v, want *apierror.APIError", err)
	}
	if ae.Reason() != "QUOTA_EXCEEDED" {
		t.Errorf("Reason() = %q, want %q", ae.Reason(), "QUOTA_EXCEEDED")
	}
	if got := status.Code(err); got != codes.ResourceExhausted {
		t.Errorf("status.Code() = %v, want %v", got, codes.ResourceExhausted)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		op   *longrunningpb.Operation
	}{
		{name: "nil", op: nil},
		{name: "wrong metadata type", op: opstest.Running(t, opName, &emptypb.Empty{})},
		{name: "wrong response type", op: opstest.Succeeded(t, opName, nil, &emptypb.Empty{})},
	} {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decode[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](test.op); err == nil {
				t.Error("Decode() succeeded, want error")
			}
		})
	}
}

func TestDecodeUnregisteredType(t *testing.T) {
	unknown := &anypb.Any{TypeUrl: "type.googleapis.com/example.v1.Unknown"}
	raw := &longrunningpb.Operation{Name: opName, Metadata: unknown}
	op, err := Decode[proto.Message, proto.Message](raw)
	if err != nil {
		t.Fatal(err)
	}
	md, ok := op.Metadata()
	if !ok {
		t.Fatal("Metadata() missing")
	}
	got, ok := md.(*anypb.Any)
	if !ok {
		t.Fatalf("Metadata() = %T, want *anypb.Any", md)
	}
	if got.GetTypeUrl() != unknown.GetTypeUrl() {
		t.Errorf("TypeUrl = %q, want %q", got.GetTypeUrl(), unknown.GetTypeUrl())
	}
	if _, err := Decode[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](raw); err == nil {
		t.Error("Decode() into a concrete type succeeded, want error")
	}
}

func TestNewPoller(t *testing.T) {
	srv := opstest.NewServer()
	srv.Add(
		opstest.Running(t, opName, metadata(cloudbuildpb.Build_WORKING)),
		opstest.Succeeded(t, opName, metadata(cloudbuildpb.Build_SUCCESS), &cloudbuildpb.Build{Id: "build-1"}),
	)
	srv.FailNext(opName, status.Error(codes.Unavailable, "restarting"))
	client := longrunningpb.NewOperationsClient(opstest.Dial(t, srv.Register()))
	start := func(ctx context.Context) (*longrunningpb.Operation, error) {
		return opstest.Running(t, opName, metadata(cloudbuildpb.Build_QUEUED)), nil
	}
	clk := retrytest.NewFakeClock(time.Time{})
	p := NewPoller[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](client, start, lro.WithClock(clk))
	var statuses []cloudbuildpb.Build_Status
	for op, err := range p.All(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		if md, ok := op.Metadata(); ok {
			statuses = append(statuses, md.GetBuild().GetStatus())
		}
	}
	want := []cloudbuildpb.Build_Status{
		cloudbuildpb.Build_QUEUED,
		cloudbuildpb.Build_WORKING,
		cloudbuildpb.Build_SUCCESS,
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got := srv.Gets(opName); got != 3 {
		t.Errorf("GetOperation calls = %d, want 3", got)
	}
	build, err := p.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if build.GetId() != "build-1" {
		t.Errorf("Wait() build id = %q, want %q", build.GetId(), "build-1")
	}
}

func TestResumePollerNotFound(t *testing.T) {
	srv := opstest.NewServer()
	client := longrunningpb.NewOperationsClient(opstest.Dial(t, srv.Register()))
	p := ResumePoller[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](client, "operations/missing",
		lro.WithClock(retrytest.NewFakeClock(time.Time{})))
	_, err := p.Wait(context.Background())
	if got := status.Code(err); got != codes.NotFound {
		t.Errorf("Wait() error = %v, want code %v", err, codes.NotFound)
	}
	if p.Name() != "operations/missing" {
		t.Errorf("Name() = %q, want %q", p.Name(), "operations/missing")
	}
}

func TestRetryInfoDelay(t *testing.T) {
	srv := opstest.NewServer()
	srv.Add(opstest.Succeeded(t, opName, nil, &cloudbuildpb.Build{Id: "build-1"}))
	st, err := status.New(codes.Unavailable, "busy").WithDetails(&errdetails.RetryInfo{RetryDelay: durationpb.New(9 * time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	srv.FailNext(opName, st.Err())
	client := longrunningpb.NewOperationsClient(opstest.Dial(t, srv.Register()))
	clk := retrytest.NewFakeClock(time.Time{})
	p := ResumePoller[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](client, opName, lro.WithClock(clk))
	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]time.Duration{time.Second, 9 * time.Second}, clk.Sleeps()); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelAndDelete(t *testing.T) {
	srv := opstest.NewServer()
	srv.Add(opstest.Running(t, opName, nil))
	client := longrunningpb.NewOperationsClient(opstest.Dial(t, srv.Register()))
	ctx := context.Background()
	if err := Cancel(ctx, client, opName); err != nil {
		t.Fatal(err)
	}
	op, err := Get(ctx, client, opName)
	if err != nil {
		t.Fatal(err)
	}
	if !op.GetDone() || codes.Code(op.GetError().GetCode()) != codes.Canceled {
		t.Errorf("Get() after Cancel = %v, want done with CANCELLED", op)
	}
	if err := Delete(ctx, client, opName); err != nil {
		t.Fatal(err)
	}
	if _, err := Get(ctx, client, opName); status.Code(err) != codes.NotFound {
		t.Errorf("Get() after Delete error = %v, want NotFound", err)
	}
	if err := Cancel(ctx, client, "operations/missing"); status.Code(err) != codes.NotFound {
		t.Errorf("Cancel() error = %v, want NotFound", err)
	}
}

func TestList(t *testing.T) {
	srv := opstest.NewServer()
	for _, name := range []string{"operations/a", "operations/b", "operations/c"} {
		srv.Add(opstest.Running(t, name, nil))
	}
	srv.Add(opstest.Succeeded(t, "operations/d", nil, &cloudbuildpb.Build{}))
	client := longrunningpb.NewOperationsClient(opstest.Dial(t, srv.Register()))
	for _, test := range []struct {
		filter string
		want   []string
	}{
		{filter: "", want: []string{"operations/a", "operations/b", "operations/c", "operations/d"}},
		{filter: "done=false", want: []string{"operations/a", "operations/b", "operations/c"}},
		{filter: "done=true", want: []string{"operations/d"}},
	} {
		t.Run(test.filter, func(t *testing.T) {
			ops, err := List(client, "operations/", test.filter, 0).All(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, op := range ops {
				got = append(got, op.GetName())
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
