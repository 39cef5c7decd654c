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

// Package paginator turns a token-based list call into lazy sequences of
// pages and items.
//
// A list call receives a page token and returns a page. The page carries
// the token for the following page; an empty token marks the final page.
// Each page fetch is retried according to a retry.Policy, with delays
// from a backoff.Policy.
//
//	p := paginator.New(
//		func(ctx context.Context, token string) (*longrunningpb.ListOperationsResponse, error) {
//			return client.ListOperations(ctx, &longrunningpb.ListOperationsRequest{Name: name, PageToken: token})
//		},
//		(*longrunningpb.ListOperationsResponse).GetOperations,
//	)
//	for op, err := range p.Items(ctx) {
//		...
//	}
package paginator

import (
	"context"
	"iter"
	"time"

	"github.com/googleapis/gax-lro/backoff"
	"github.com/googleapis/gax-lro/retry"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

// Page is a list response that carries the token of the following page.
type Page interface {
	GetNextPageToken() string
}

// ListFunc fetches the page identified by token. The first page is fetched
// with the seed token, usually "".
type ListFunc[P Page] func(ctx context.Context, token string) (P, error)

// Option configures a Paginator.
type Option func(*settings)

type settings struct {
	token   string
	retry   retry.Policy
	backoff backoff.Policy
	clock   retry.Clock
}

func defaultSettings() settings {
	return settings{
		retry: retry.LimitedAttempts{
			MaxAttempts: 5,
			Inner:       retry.TransientErrors{Codes: []codes.Code{codes.Unavailable}},
		},
		backoff: backoff.Exponential{
			Initial:    100 * time.Millisecond,
			Maximum:    10 * time.Second,
			Multiplier: 2,
		},
		clock: retry.WallClock,
	}
}

// WithPageToken starts listing at the page identified by token.
func WithPageToken(token string) Option {
	return func(s *settings) {
		s.token = token
	}
}

// WithRetry sets the policy consulted when a page fetch fails.
func WithRetry(p retry.Policy) Option {
	return func(s *settings) {
		if p != nil {
			s.retry = p
		}
	}
}

// WithBackoff sets the delays between attempts to fetch the same page.
func WithBackoff(p backoff.Policy) Option {
	return func(s *settings) {
		if p != nil {
			s.backoff = p
		}
	}
}

// WithClock replaces the wall clock, usually with a fake in tests.
func WithClock(c retry.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// Paginator walks the pages of a list call. It is not safe for concurrent
// use. Once it returns an error it returns the same error from then on.
type Paginator[P Page, T any] struct {
	settings
	list    ListFunc[P]
	items   func(P) []T
	done    bool
	err     error
	pending []T
}

// New returns a Paginator over list. items extracts the elements of a
// page and may be nil when only Pages or Next are used.
func New[P Page, T any](list func(ctx context.Context, token string) (P, error), items func(P) []T, opts ...Option) *Paginator[P, T] {
	p := &Paginator[P, T]{
		settings: defaultSettings(),
		list:     list,
		items:    items,
	}
	for _, opt := range opts {
		opt(&p.settings)
	}
	return p
}

// NextPageToken returns the token of the page the next call to Next will
// fetch. It is empty after the final page.
func (p *Paginator[P, T]) NextPageToken() string {
	return p.token
}

// Next fetches the next page. After the final page it returns
// iterator.Done.
func (p *Paginator[P, T]) Next(ctx context.Context) (P, error) {
	var zero P
	if p.err != nil {
		return zero, p.err
	}
	if p.done {
		return zero, iterator.Done
	}
	loop := retry.Loop{Policy: p.retry, Backoff: p.backoff, Clock: p.clock}
	token := p.token
	page, err := retry.Run(ctx, loop, func(ctx context.Context) (P, error) {
		return p.list(ctx, token)
	})
	if err != nil {
		p.err = err
		return zero, err
	}
	p.token = page.GetNextPageToken()
	if p.token == "" {
		p.done = true
	}
	return page, nil
}

// Pages returns the remaining pages as a sequence. A failed fetch is
// yielded once and ends the sequence. Breaking out of the loop keeps the
// position, so a later call continues with the following page.
func (p *Paginator[P, T]) Pages(ctx context.Context) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		for {
			page, err := p.Next(ctx)
			if err == iterator.Done {
				return
			}
			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

// Items returns the remaining elements of all pages as a sequence. Items
// of a page that were not consumed before a break are yielded first by the
// next call.
func (p *Paginator[P, T]) Items(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			for len(p.pending) > 0 {
				item := p.pending[0]
				p.pending = p.pending[1:]
				if !yield(item, nil) {
					return
				}
			}
			page, err := p.Next(ctx)
			if err == iterator.Done {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if p.items != nil {
				p.pending = p.items(page)
			}
		}
	}
}

// All drains the remaining items into a slice.
func (p *Paginator[P, T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for item, err := range p.Items(ctx) {
		if err != nil {
			return all, err
		}
		all = append(all, item)
	}
	return all, nil
}
