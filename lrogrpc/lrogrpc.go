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

// Package lrogrpc connects the lro package to services that implement
// google.longrunning.Operations over gRPC.
//
// Decode converts a longrunningpb.Operation into an lro.Operation with
// typed result and metadata messages. NewPoller builds an lro.Poller whose
// poll action calls GetOperation. Get, Cancel, Delete and List wrap the
// remaining methods of the Operations service.
package lrogrpc

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/paginator"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/anypb"
)

// Decode converts op into an lro.Operation. The metadata and response
// payloads must hold messages of types M and R. A payload whose type is not
// linked into the binary is returned as its *anypb.Any when R or M is
// proto.Message. A done operation that
// carries a google.rpc.Status becomes a failed operation whose error is an
// *apierror.APIError, so status codes and error details survive.
func Decode[R, M proto.Message](op *longrunningpb.Operation) (*lro.Operation[R, M], error) {
	if op == nil {
		return nil, errors.New("nil operation")
	}
	var out *lro.Operation[R, M]
	switch {
	case !op.GetDone():
		out = lro.InProgress[R, M](op.GetName())
	case op.GetError() != nil:
		out = lro.Failed[R, M](op.GetName(), statusError(op))
	default:
		var result R
		if op.GetResponse() != nil {
			r, err := unpack[R](op.GetResponse())
			if err != nil {
				return nil, fmt.Errorf("decoding response of %q: %w", op.GetName(), err)
			}
			result = r
		}
		out = lro.Succeeded[R, M](op.GetName(), result)
	}
	if op.GetMetadata() != nil {
		m, err := unpack[M](op.GetMetadata())
		if err != nil {
			return nil, fmt.Errorf("decoding metadata of %q: %w", op.GetName(), err)
		}
		out = out.WithMetadata(m)
	}
	return out, nil
}

func statusError(op *longrunningpb.Operation) error {
	err := status.ErrorProto(op.GetError())
	if ae, ok := apierror.FromError(err); ok {
		return ae
	}
	return err
}

func unpack[T proto.Message](a *anypb.Any) (T, error) {
	var zero T
	msg, err := a.UnmarshalNew()
	if errors.Is(err, protoregistry.NotFound) {
		// Unregistered payloads stay packed when T admits an Any.
		if t, ok := any(a).(T); ok {
			return t, nil
		}
	}
	if err != nil {
		return zero, err
	}
	t, ok := msg.(T)
	if !ok {
		return zero, fmt.Errorf("payload has type %s, want %T", a.GetTypeUrl(), zero)
	}
	return t, nil
}

// Start adapts an RPC that returns a raw longrunningpb.Operation into an
// lro.StartFunc.
func Start[R, M proto.Message](call func(ctx context.Context) (*longrunningpb.Operation, error)) lro.StartFunc[R, M] {
	return func(ctx context.Context) (*lro.Operation[R, M], error) {
		op, err := call(ctx)
		if err != nil {
			return nil, err
		}
		return Decode[R, M](op)
	}
}

// Poll returns an lro.PollFunc that reads the operation with GetOperation.
// It does not retry; retries are the Poller's job.
func Poll[R, M proto.Message](client longrunningpb.OperationsClient, opts ...grpc.CallOption) lro.PollFunc[R, M] {
	return func(ctx context.Context, name string) (*lro.Operation[R, M], error) {
		op, err := Get(ctx, client, name, opts...)
		if err != nil {
			return nil, err
		}
		return Decode[R, M](op)
	}
}

// NewPoller returns a Poller that starts the operation with call and
// polls it through client.
func NewPoller[R, M proto.Message](client longrunningpb.OperationsClient, call func(ctx context.Context) (*longrunningpb.Operation, error), opts ...lro.Option) *lro.Poller[R, M] {
	return lro.New[R, M](Start[R, M](call), Poll[R, M](client), opts...)
}

// ResumePoller returns a Poller for the existing operation name.
func ResumePoller[R, M proto.Message](client longrunningpb.OperationsClient, name string, opts ...lro.Option) *lro.Poller[R, M] {
	return lro.Resume[R, M](name, Poll[R, M](client), opts...)
}

// Get returns the latest state of the named operation.
func Get(ctx context.Context, client longrunningpb.OperationsClient, name string, opts ...grpc.CallOption) (*longrunningpb.Operation, error) {
	return client.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: name}, opts...)
}

// Cancel asks the service to cancel the named operation. Cancellation is
// best effort; poll the operation to learn its outcome.
func Cancel(ctx context.Context, client longrunningpb.OperationsClient, name string, opts ...grpc.CallOption) error {
	_, err := client.CancelOperation(ctx, &longrunningpb.CancelOperationRequest{Name: name}, opts...)
	return err
}

// Delete tells the service the client is no longer interested in the
// named operation.
func Delete(ctx context.Context, client longrunningpb.OperationsClient, name string, opts ...grpc.CallOption) error {
	_, err := client.DeleteOperation(ctx, &longrunningpb.DeleteOperationRequest{Name: name}, opts...)
	return err
}

// List returns a Paginator over the operations under name that match
// filter.
func List(client longrunningpb.OperationsClient, name, filter string, pageSize int32, opts ...paginator.Option) *paginator.Paginator[*longrunningpb.ListOperationsResponse, *longrunningpb.Operation] {
	list := func(ctx context.Context, token string) (*longrunningpb.ListOperationsResponse, error) {
		return client.ListOperations(ctx, &longrunningpb.ListOperationsRequest{
			Name:      name,
			Filter:    filter,
			PageSize:  pageSize,
			PageToken: token,
		})
	}
	return paginator.New(list, (*longrunningpb.ListOperationsResponse).GetOperations, opts...)
}
