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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/googleapis/gax-lro/backoff"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/paginator"
	"github.com/googleapis/gax-lro/retry"
	"github.com/pelletier/go-toml/v2"
	"google.golang.org/grpc/codes"
	"gopkg.in/yaml.v3"
)

// Policies is the contract for a policy file. Each section configures one
// retry loop; a missing section keeps the library defaults.
type Policies struct {
	Start *Section `yaml:"start" toml:"start"`
	Poll  *Section `yaml:"poll" toml:"poll"`
	List  *Section `yaml:"list" toml:"list"`
}

// Section pairs a retry policy with a backoff policy.
type Section struct {
	Retry   *Retry   `yaml:"retry" toml:"retry"`
	Backoff *Backoff `yaml:"backoff" toml:"backoff"`
}

// Retry describes a retry.Policy. Codes lists the retryable status codes;
// when empty, UNAVAILABLE is retried. MaxAttempts and MaxElapsed bound the
// loop when set.
type Retry struct {
	Never       bool     `yaml:"never" toml:"never"`
	MaxAttempts int      `yaml:"max-attempts" toml:"max-attempts"`
	MaxElapsed  Duration `yaml:"max-elapsed" toml:"max-elapsed"`
	Codes       []Code   `yaml:"codes" toml:"codes"`
}

// Backoff describes a backoff.Exponential.
type Backoff struct {
	Initial    Duration `yaml:"initial" toml:"initial"`
	Maximum    Duration `yaml:"maximum" toml:"maximum"`
	Multiplier float64  `yaml:"multiplier" toml:"multiplier"`
	Jitter     bool     `yaml:"jitter" toml:"jitter"`
}

// Duration is a time.Duration written as a Go duration string, such as
// "1.5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Code is a gRPC status code written by name, such as "UNAVAILABLE".
type Code codes.Code

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(b []byte) error {
	var code codes.Code
	name := strings.ToUpper(strings.TrimSpace(string(b)))
	if err := code.UnmarshalJSON([]byte(strconv.Quote(name))); err != nil {
		return fmt.Errorf("unknown status code %q", string(b))
	}
	*c = Code(code)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Code) UnmarshalYAML(n *yaml.Node) error {
	return c.UnmarshalText([]byte(n.Value))
}

// LoadPolicies reads and validates a policy file. Files ending in .toml
// are read as TOML; .yaml and .yml files as YAML.
func LoadPolicies(path string) (*Policies, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	p := &Policies{}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(contents))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(contents))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported policy file extension %q", ext)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that every section is well formed.
func (p *Policies) Validate() error {
	var errs []error
	for _, s := range []struct {
		name    string
		section *Section
	}{
		{"start", p.Start},
		{"poll", p.Poll},
		{"list", p.List},
	} {
		if err := s.section.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Section) validate() error {
	if s == nil {
		return nil
	}
	var errs []error
	if r := s.Retry; r != nil {
		if r.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("max-attempts must be non-negative, got %d", r.MaxAttempts))
		}
		if r.MaxElapsed < 0 {
			errs = append(errs, fmt.Errorf("max-elapsed must be non-negative, got %v", time.Duration(r.MaxElapsed)))
		}
		if r.Never && (r.MaxAttempts != 0 || r.MaxElapsed != 0 || len(r.Codes) != 0) {
			errs = append(errs, errors.New("never cannot be combined with other retry settings"))
		}
	}
	if b := s.Backoff; b != nil {
		if err := b.Policy().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Policy builds the retry.Policy described by r.
func (r *Retry) Policy() retry.Policy {
	if r.Never {
		return retry.NeverRetry{}
	}
	var p retry.Policy = retry.TransientErrors{Codes: r.codes()}
	if r.MaxElapsed > 0 {
		p = retry.LimitedElapsedTime{Maximum: time.Duration(r.MaxElapsed), Inner: p}
	}
	if r.MaxAttempts > 0 {
		p = retry.LimitedAttempts{MaxAttempts: r.MaxAttempts, Inner: p}
	}
	return p
}

func (r *Retry) codes() []codes.Code {
	var out []codes.Code
	for _, c := range r.Codes {
		out = append(out, codes.Code(c))
	}
	return out
}

// Policy builds the backoff.Exponential described by b.
func (b *Backoff) Policy() backoff.Exponential {
	return backoff.Exponential{
		Initial:    time.Duration(b.Initial),
		Maximum:    time.Duration(b.Maximum),
		Multiplier: b.Multiplier,
		Jitter:     b.Jitter,
	}
}

func (s *Section) policies() (retry.Policy, backoff.Policy) {
	var (
		r retry.Policy
		b backoff.Policy
	)
	if s == nil {
		return nil, nil
	}
	if s.Retry != nil {
		r = s.Retry.Policy()
	}
	if s.Backoff != nil {
		b = s.Backoff.Policy()
	}
	return r, b
}

// PollerOptions returns the lro options for the start and poll sections.
// Unset policies are left to the Poller defaults.
func (p *Policies) PollerOptions() []lro.Option {
	if p == nil {
		return nil
	}
	startRetry, startBackoff := p.Start.policies()
	pollRetry, pollBackoff := p.Poll.policies()
	return []lro.Option{
		lro.WithStartRetry(startRetry),
		lro.WithStartBackoff(startBackoff),
		lro.WithPollRetry(pollRetry),
		lro.WithPollBackoff(pollBackoff),
	}
}

// PaginatorOptions returns the paginator options for the list section.
func (p *Policies) PaginatorOptions() []paginator.Option {
	if p == nil {
		return nil
	}
	r, b := p.List.policies()
	return []paginator.Option{paginator.WithRetry(r), paginator.WithBackoff(b)}
}
