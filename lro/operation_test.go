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
	"testing"

	"github.com/google/go-cmp/cmp"
)

type progress struct {
	Percent int
}

func TestOperationInProgress(t *testing.T) {
	op := InProgress[string, progress]("operations/123")
	if op.Done() {
		t.Errorf("Done() = true, want false")
	}
	if op.Name() != "operations/123" {
		t.Errorf("Name() = %q, want %q", op.Name(), "operations/123")
	}
	if _, ok := op.Metadata(); ok {
		t.Errorf("Metadata() reported metadata on a bare operation")
	}
	if _, err := op.Result(); !errors.Is(err, ErrNotDone) {
		t.Errorf("Result() error = %v, want %v", err, ErrNotDone)
	}
}

func TestOperationWithMetadata(t *testing.T) {
	bare := InProgress[string, progress]("operations/123")
	op := bare.WithMetadata(progress{Percent: 30})
	got, ok := op.Metadata()
	if !ok {
		t.Fatal("Metadata() returned no metadata")
	}
	if diff := cmp.Diff(progress{Percent: 30}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, ok := bare.Metadata(); ok {
		t.Errorf("WithMetadata modified the original operation")
	}
}

func TestOperationSucceeded(t *testing.T) {
	op := Succeeded[string, progress]("operations/123", "done!")
	if !op.Done() {
		t.Errorf("Done() = false, want true")
	}
	got, err := op.Result()
	if err != nil {
		t.Fatal(err)
	}
	if got != "done!" {
		t.Errorf("Result() = %q, want %q", got, "done!")
	}
}

func TestOperationFailed(t *testing.T) {
	cause := errors.New("quota exceeded")
	op := Failed[string, progress]("operations/123", cause)
	if !op.Done() {
		t.Errorf("Done() = false, want true")
	}
	_, err := op.Result()
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Result() error = %v, want *OperationError", err)
	}
	if opErr.Name != "operations/123" {
		t.Errorf("OperationError.Name = %q, want %q", opErr.Name, "operations/123")
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(%v, %v) = false", err, cause)
	}
}

func TestOperationFailedWithoutError(t *testing.T) {
	op := Failed[string, progress]("operations/123", nil)
	if _, err := op.Result(); err == nil {
		t.Errorf("Result() returned no error for a failed operation")
	}
}
