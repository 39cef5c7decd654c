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

package automation

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/lrogrpc"
	"github.com/googleapis/gax-lro/paginator"
	"google.golang.org/grpc"
)

// CloudBuildClient is an interface for mocking calls to Cloud Build. The
// generated cloudbuildpb.CloudBuildClient satisfies it.
type CloudBuildClient interface {
	RunBuildTrigger(ctx context.Context, req *cloudbuildpb.RunBuildTriggerRequest, opts ...grpc.CallOption) (*longrunningpb.Operation, error)
	ListBuildTriggers(ctx context.Context, req *cloudbuildpb.ListBuildTriggersRequest, opts ...grpc.CallOption) (*cloudbuildpb.ListBuildTriggersResponse, error)
}

// Clients bundles the Cloud Build service and the Operations service that
// reports on its builds.
type Clients struct {
	Builds     CloudBuildClient
	Operations longrunningpb.OperationsClient
}

// Options tunes how triggers are found and how their builds are awaited.
type Options struct {
	Poller    []lro.Option
	Paginator []paginator.Option
}

// BuildPoller is a Poller over a Cloud Build operation.
type BuildPoller = lro.Poller[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata]

func runCloudBuildTriggerByName(ctx context.Context, c Clients, projectId, location, triggerName string, substitutions map[string]string, opts Options) (*cloudbuildpb.Build, error) {
	triggerId, err := findTriggerIdByName(ctx, c.Builds, projectId, location, triggerName, opts.Paginator...)
	if err != nil {
		return nil, fmt.Errorf("error finding triggerid: %w", err)
	}
	slog.Info("found triggerId", slog.String("triggerId", triggerId))
	p := newTriggerPoller(c, projectId, location, triggerId, substitutions, opts.Poller...)
	return waitForBuild(ctx, p)
}

func findTriggerIdByName(ctx context.Context, c CloudBuildClient, projectId, location, triggerName string, opts ...paginator.Option) (string, error) {
	slog.Info("looking for triggerId by name",
		slog.String("projectId", projectId),
		slog.String("location", location),
		slog.String("triggerName", triggerName),
	)
	list := func(ctx context.Context, token string) (*cloudbuildpb.ListBuildTriggersResponse, error) {
		return c.ListBuildTriggers(ctx, &cloudbuildpb.ListBuildTriggersRequest{
			Parent:    fmt.Sprintf("projects/%s/locations/%s", projectId, location),
			ProjectId: projectId,
			PageToken: token,
		})
	}
	triggers := paginator.New(list, (*cloudbuildpb.ListBuildTriggersResponse).GetTriggers, opts...)
	for trigger, err := range triggers.Items(ctx) {
		if err != nil {
			return "", fmt.Errorf("error listing triggers: %w", err)
		}
		if trigger.GetName() == triggerName {
			return trigger.GetId(), nil
		}
	}
	return "", fmt.Errorf("could not find trigger id for %q", triggerName)
}

func newTriggerPoller(c Clients, projectId, location, triggerId string, substitutions map[string]string, opts ...lro.Option) *BuildPoller {
	triggerName := fmt.Sprintf("projects/%s/locations/%s/triggers/%s", projectId, location, triggerId)
	start := func(ctx context.Context) (*longrunningpb.Operation, error) {
		req := &cloudbuildpb.RunBuildTriggerRequest{
			Name:      triggerName,
			ProjectId: projectId,
			TriggerId: triggerId,
			Source: &cloudbuildpb.RepoSource{
				Substitutions: substitutions,
			},
		}
		slog.Info("triggering", slog.String("triggerName", triggerName), slog.String("triggerId", triggerId))
		return c.Builds.RunBuildTrigger(ctx, req)
	}
	return lrogrpc.NewPoller[*cloudbuildpb.Build, *cloudbuildpb.BuildOperationMetadata](c.Operations, start, opts...)
}

// waitForBuild drives p to completion, logging every observed build status.
func waitForBuild(ctx context.Context, p *BuildPoller) (*cloudbuildpb.Build, error) {
	for op, err := range p.All(ctx) {
		if err != nil {
			slog.Error("build failed",
				slog.String("operation", p.Name()),
				slog.String("state", p.State().String()),
				slog.Any("err", err))
			return nil, err
		}
		md, _ := op.Metadata()
		slog.Info("build progress",
			slog.String("operation", op.Name()),
			slog.String("buildId", md.GetBuild().GetId()),
			slog.String("status", md.GetBuild().GetStatus().String()),
		)
	}
	build, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("build finished",
		slog.String("buildId", build.GetId()),
		slog.String("status", build.GetStatus().String()),
		slog.String("logUrl", build.GetLogUrl()),
	)
	return build, nil
}
