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

package lro

import (
	"errors"
	"fmt"
)

// ErrNotDone is returned when reading the result of an operation that has
// not completed.
var ErrNotDone = errors.New("operation is not done")

// Operation is a snapshot of a long-running operation. R is the type of the
// result and M the type of the progress metadata.
//
// Operations are values: a poll returns a new Operation that replaces the
// previous one.
type Operation[R, M any] struct {
	name        string
	done        bool
	metadata    M
	hasMetadata bool
	result      R
	err         error
}

// InProgress returns an operation that has not completed.
func InProgress[R, M any](name string) *Operation[R, M] {
	return &Operation[R, M]{name: name}
}

// Succeeded returns a completed operation with a result.
func Succeeded[R, M any](name string, result R) *Operation[R, M] {
	return &Operation[R, M]{name: name, done: true, result: result}
}

// Failed returns a completed operation that reported err. The error is
// wrapped in an *OperationError.
func Failed[R, M any](name string, err error) *Operation[R, M] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Operation[R, M]{name: name, done: true, err: &OperationError{Name: name, Err: err}}
}

// WithMetadata returns a copy of o that carries the progress metadata m.
func (o *Operation[R, M]) WithMetadata(m M) *Operation[R, M] {
	c := *o
	c.metadata = m
	c.hasMetadata = true
	return &c
}

// Name returns the name the service assigned to the operation.
func (o *Operation[R, M]) Name() string {
	return o.name
}

// Done reports whether the operation has completed, successfully or not.
func (o *Operation[R, M]) Done() bool {
	return o.done
}

// Metadata returns the progress metadata, if the service sent any.
func (o *Operation[R, M]) Metadata() (M, bool) {
	return o.metadata, o.hasMetadata
}

// Result returns the outcome of a completed operation. It returns an error
// wrapping ErrNotDone if the operation is still running, and an
// *OperationError if the operation failed.
func (o *Operation[R, M]) Result() (R, error) {
	var zero R
	if !o.done {
		return zero, fmt.Errorf("reading result of %q: %w", o.name, ErrNotDone)
	}
	if o.err != nil {
		return zero, o.err
	}
	return o.result, nil
}

// OperationError reports that an operation completed with a failure. It
// is never retried.
type OperationError struct {
	// Name is the name of the operation that failed.
	Name string
	// Err is the failure reported by the service.
	Err error
}

// Error implements error.
func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %q failed: %v", e.Name, e.Err)
}

// Unwrap returns the failure reported by the service.
func (e *OperationError) Unwrap() error {
	return e.Err
}
