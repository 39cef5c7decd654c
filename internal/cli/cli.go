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

// Package cli provides a minimal framework for commands that share a
// config.Config populated from flags.
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/googleapis/gax-lro/internal/config"
)

// Command represents a single command that can be executed by the application.
type Command struct {
	// Name is the unique identifier for the command.
	Name string

	// Short is a concise description shown in the 'lroctl -h' output.
	Short string

	// UsageLine is the one-line usage message, e.g.
	// "lroctl wait -endpoint=<host:port> <operation>".
	UsageLine string

	// Long is the full description shown in 'lroctl <command> -h'.
	Long string

	// Run executes the command with the parsed configuration and the
	// positional arguments left after flag parsing.
	Run func(ctx context.Context, cfg *config.Config, args []string) error

	// Config receives the flag values. It is created by SetFlags.
	Config *config.Config

	// flags is the command's flag set for parsing arguments and generating
	// usage messages. This is populated for each command in init().
	flags *flag.FlagSet
}

// Parse parses the provided command-line arguments using the command's flag
// set.
func (c *Command) Parse(args []string) error {
	return c.flags.Parse(args)
}

// Args returns the positional arguments left after Parse.
func (c *Command) Args() []string {
	return c.flags.Args()
}

// Usage prints the command's usage message.
func (c *Command) Usage() {
	c.flags.Usage()
}

// Lookup finds a command by its name, and returns an error if the command is
// not found.
func Lookup(name string, commands []*Command) (*Command, error) {
	var cmd *Command
	for _, sub := range commands {
		if sub.Name == name {
			cmd = sub
		}
	}
	if cmd == nil {
		return nil, fmt.Errorf("invalid command: %q", name)
	}
	return cmd, nil
}

// SetFlags creates the command's Config and flag set, then registers the
// given flag functions against them.
func (c *Command) SetFlags(flagFunctions []func(fs *flag.FlagSet, cfg *config.Config)) {
	c.Config = config.New(c.Name)
	c.flags = flag.NewFlagSet(c.Name, flag.ContinueOnError)
	c.flags.Usage = constructUsage(c.flags, c)
	for _, fn := range flagFunctions {
		fn(c.flags, c.Config)
	}
}

func constructUsage(fs *flag.FlagSet, c *Command) func() {
	usageLine := c.UsageLine
	if usageLine == "" {
		usageLine = fmt.Sprintf("lroctl %s [arguments]", c.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Usage:\n\n  %s\n", usageLine)
	if c.Long != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(c.Long))
	}
	b.WriteString("\nFlags:\n\n")
	output := b.String()
	return func() {
		fmt.Fprint(fs.Output(), output)
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\n\n")
	}
}
