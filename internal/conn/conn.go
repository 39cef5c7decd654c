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

// Package conn builds gRPC connections to Google APIs and local emulators.
package conn

import (
	"context"
	"errors"
	"fmt"

	"github.com/googleapis/gax-lro/internal/cli"
	"google.golang.org/api/option"
	gtransport "google.golang.org/api/transport/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Dial connects to endpoint. Plaintext connections carry no credentials
// and are meant for emulators; otherwise TLS with Application Default
// Credentials is used.
func Dial(ctx context.Context, endpoint string, plaintext bool) (*grpc.ClientConn, error) {
	if endpoint == "" {
		return nil, errors.New("no endpoint specified")
	}
	if plaintext {
		c, err := grpc.NewClient(endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithUserAgent(cli.UserAgent()),
		)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
		}
		return c, nil
	}
	c, err := gtransport.Dial(ctx,
		option.WithEndpoint(endpoint),
		option.WithScopes(cloudPlatformScope),
		option.WithUserAgent(cli.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return c, nil
}
