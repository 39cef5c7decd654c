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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/googleapis/gax-lro/backoff"
	"github.com/googleapis/gax-lro/retry/retrytest"
)

func testLoop(policy Policy) (Loop, *retrytest.FakeClock) {
	clk := retrytest.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return Loop{
		Policy:  policy,
		Backoff: backoff.Exponential{Initial: time.Second, Maximum: 4 * time.Second, Multiplier: 2},
		Clock:   clk,
	}, clk
}

func TestRunSucceedsAfterRetries(t *testing.T) {
	loop, clk := testLoop(LimitedAttempts{MaxAttempts: 5, Inner: TransientErrors{}})
	calls := 0
	got, err := Run(context.Background(), loop, func(context.Context) (string, error) {
		calls++
		if calls < 4 {
			return "", errTransient
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want %q", got, "ok")
	}
	if calls != 4 {
		t.Errorf("got %d calls, want 4", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if diff := cmp.Diff(want, clk.Sleeps()); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExhausted(t *testing.T) {
	loop, _ := testLoop(LimitedAttempts{MaxAttempts: 3})
	calls := 0
	_, err := Run(context.Background(), loop, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want *ExhaustedError", err)
	}
	if exhausted.Attempts != 3 || calls != 3 {
		t.Errorf("got %d attempts and %d calls, want 3 and 3", exhausted.Attempts, calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("errors.Is(%v, %v) = false", err, errTransient)
	}
}

func TestRunPermanent(t *testing.T) {
	loop, clk := testLoop(TransientErrors{})
	calls := 0
	_, err := Run(context.Background(), loop, func(context.Context) (int, error) {
		calls++
		return 0, errDenied
	})
	if err != errDenied {
		t.Errorf("got %v, want %v", err, errDenied)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
	if len(clk.Sleeps()) != 0 {
		t.Errorf("unexpected sleeps: %v", clk.Sleeps())
	}
}

func TestRunUsesDelayHint(t *testing.T) {
	loop, clk := testLoop(hintPolicy{delay: 7 * time.Second})
	calls := 0
	_, err := Run(context.Background(), loop, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errTransient
		}
		return calls, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]time.Duration{7 * time.Second}, clk.Sleeps()); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCancelled(t *testing.T) {
	loop, _ := testLoop(AlwaysRetry{})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Run(ctx, loop, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	loop, _ := testLoop(AlwaysRetry{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, loop, func(context.Context) (int, error) {
		t.Fatal("fn called with a cancelled context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, WallClock, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestSleepWallClock(t *testing.T) {
	if err := Sleep(context.Background(), WallClock, time.Millisecond); err != nil {
		t.Fatal(err)
	}
}

type hintPolicy struct {
	delay time.Duration
}

func (p hintPolicy) OnError(error, int, time.Duration) Decision {
	return RetryAfter(p.delay)
}
