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

// Package lroctl contains the business logic for the lroctl CLI, which
// inspects and waits on long-running operations served through the
// google.longrunning.Operations API.
package lroctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/googleapis/gax-lro/internal/cli"
	"github.com/googleapis/gax-lro/internal/conn"
	"github.com/googleapis/gax-lro/retry"
)

// These are variables so they can be replaced during testing.
var (
	out                    = io.Writer(os.Stdout)
	dial                   = conn.Dial
	clock      retry.Clock = retry.WallClock
	logHandler             = func(level slog.Level) slog.Handler {
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
)

func newCommands() []*cli.Command {
	return []*cli.Command{
		newCmdWait(),
		newCmdList(),
		newCmdCancel(),
		newCmdRunTrigger(),
		newCmdVersion(),
	}
}

// Run executes the lroctl CLI with the given command line arguments.
func Run(ctx context.Context, arg ...string) error {
	commands := newCommands()
	if len(arg) == 0 {
		printUsage(commands)
		return errors.New("command not specified")
	}
	cmd, err := cli.Lookup(arg[0], commands)
	if err != nil {
		printUsage(commands)
		return err
	}
	if err := cmd.Parse(arg[1:]); err != nil {
		// We expect that if cmd.Parse fails, it will already
		// have printed out a command-specific usage error,
		// so we don't need to display the general usage.
		return err
	}
	if cmd.Config.Verbose {
		slog.SetDefault(slog.New(logHandler(slog.LevelDebug)))
	}
	slog.Debug("lroctl", "arguments", arg)
	if _, err := cmd.Config.IsValid(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}
	if cmd.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Config.Timeout)
		defer cancel()
	}
	return cmd.Run(ctx, cmd.Config, cmd.Args())
}

func printUsage(commands []*cli.Command) {
	var b strings.Builder
	b.WriteString("lroctl inspects and waits on long-running operations.\n\n")
	b.WriteString("Usage:\n\n  lroctl <command> [arguments]\n\nCommands:\n\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-12s %s\n", c.Name, c.Short)
	}
	fmt.Fprint(os.Stderr, b.String())
}
