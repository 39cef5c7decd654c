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

/*
Package lro drives long-running operations (LROs) to completion.

A long-running operation is started by one RPC and then observed through
another RPC that returns its current state, addressed by the name the
service assigned on start. A [Poller] issues the start call once (retrying
it only as its start retry policy allows), then polls the operation at
intervals chosen by its polling backoff policy until the operation is done,
a policy gives up, or the context is cancelled.

The poller can be consumed in two ways, both built on the same step
function, [Poller.Poll]:

	// Wait for the final result.
	result, err := poller.Wait(ctx)

	// Or observe progress.
	for op, err := range poller.All(ctx) {
		if err != nil {
			return err
		}
		if md, ok := op.Metadata(); ok {
			report(md)
		}
	}

Errors are reported so callers can tell the outcomes apart:

  - *[OperationError]: the operation completed and reported a failure.
  - *[retry.ExhaustedError]: a retry policy ran out of attempts or time.
  - errors matching [context.Canceled] or [context.DeadlineExceeded]: the
    caller stopped waiting. [Poller.Name] still returns the operation name,
    so polling can be resumed later with [Resume].
  - any other error: an RPC failed with an error the retry policy treats as
    permanent.
*/
package lro
