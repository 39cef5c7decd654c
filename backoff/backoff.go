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

// Package backoff computes the delay between attempts of a retry or polling
// loop.
//
// A [Policy] is a pure function of the attempt count. It holds no state
// between calls, so one value may be shared by any number of concurrent
// loops.
package backoff

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/googleapis/gax-go/v2"
)

const (
	// DefaultInitial is the first delay used when Exponential.Initial is not
	// set.
	DefaultInitial = time.Second
	// DefaultMaximum is the delay cap used when Exponential.Maximum is not
	// set.
	DefaultMaximum = 60 * time.Second
	// DefaultMultiplier is the growth factor used when
	// Exponential.Multiplier is not set.
	DefaultMultiplier = 2.0
)

// Policy computes the delay before the next attempt.
//
// Delay must return a non-negative, finite duration for every attempt >= 0.
// Attempt 0 is the delay before the first retry (or the first poll).
type Policy interface {
	Delay(attempt int) time.Duration
}

// Exponential grows the delay by Multiplier on each attempt, starting at
// Initial and never exceeding Maximum.
//
// With Jitter set, the delay for an attempt is chosen uniformly in
// [Initial, d], where d is the un-jittered delay for that attempt.
type Exponential struct {
	Initial    time.Duration
	Maximum    time.Duration
	Multiplier float64
	Jitter     bool
}

// Delay implements Policy.
func (e Exponential) Delay(attempt int) time.Duration {
	initial, maximum, multiplier := e.bounds()
	if attempt < 0 {
		attempt = 0
	}
	d := float64(initial) * math.Pow(multiplier, float64(attempt))
	delay := maximum
	if !math.IsInf(d, 0) && !math.IsNaN(d) && d < float64(maximum) {
		delay = time.Duration(d)
	}
	if e.Jitter && delay > initial {
		delay = initial + rand.N(delay-initial+1)
	}
	return delay
}

// Validate reports configuration values that Delay would silently replace.
func (e Exponential) Validate() error {
	if e.Initial < 0 {
		return fmt.Errorf("initial delay must be non-negative, got %v", e.Initial)
	}
	if e.Maximum < 0 {
		return fmt.Errorf("maximum delay must be non-negative, got %v", e.Maximum)
	}
	if e.Initial > 0 && e.Maximum > 0 && e.Maximum < e.Initial {
		return fmt.Errorf("maximum delay (%v) must not be less than initial delay (%v)", e.Maximum, e.Initial)
	}
	if math.IsNaN(e.Multiplier) || (e.Multiplier != 0 && e.Multiplier < 1) {
		return fmt.Errorf("multiplier must be >= 1, got %v", e.Multiplier)
	}
	return nil
}

func (e Exponential) bounds() (initial, maximum time.Duration, multiplier float64) {
	initial, maximum, multiplier = e.Initial, e.Maximum, e.Multiplier
	if initial <= 0 {
		initial = DefaultInitial
	}
	if maximum <= 0 {
		maximum = DefaultMaximum
	}
	if maximum < initial {
		maximum = initial
	}
	if multiplier < 1 || math.IsNaN(multiplier) {
		multiplier = DefaultMultiplier
	}
	return initial, maximum, multiplier
}

// Constant waits the same amount of time before every attempt.
type Constant struct {
	Interval time.Duration
}

// Delay implements Policy.
func (c Constant) Delay(int) time.Duration {
	return max(c.Interval, 0)
}

// FromGax converts the gax-go backoff settings used by generated Go clients
// into an equivalent jittered Exponential policy. Zero fields take the
// gax-go defaults.
func FromGax(b gax.Backoff) Exponential {
	e := Exponential{
		Initial:    b.Initial,
		Maximum:    b.Max,
		Multiplier: b.Multiplier,
		Jitter:     true,
	}
	if e.Initial <= 0 {
		e.Initial = time.Second
	}
	if e.Maximum <= 0 {
		e.Maximum = 30 * time.Second
	}
	if e.Multiplier < 1 {
		e.Multiplier = 2
	}
	return e
}
