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

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/googleapis/gax-lro/internal/lroctl"
)

func main() {
	ctx := context.Background()
	if err := lroctl.Run(ctx, os.Args[1:]...); err != nil {
		slog.Error("lroctl command failed", "err", err)
		os.Exit(1)
	}
}
