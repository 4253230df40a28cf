// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vectorstore

import (
	"context"
	"log/slog"
	"time"
)

// maxRetryDelay caps the wait between attempts.
const maxRetryDelay = 30 * time.Second

// RetryWithBackoff calls op until it succeeds, maxAttempts calls have been
// made, or ctx is done. The wait after attempt n is baseDelay * 2^(n-1),
// capped at maxRetryDelay. The last error is returned unwrapped.
func RetryWithBackoff(ctx context.Context, op func(ctx context.Context) error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx)
		if err == nil || attempt == maxAttempts {
			if err == nil && attempt > 1 {
				slog.Debug("write succeeded on retry", "attempt", attempt)
			}
			return err
		}

		wait := backoff(baseDelay, attempt)
		slog.Debug("write failed, retrying", "attempt", attempt, "of", maxAttempts, "wait", wait, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(base time.Duration, attempt int) time.Duration {
	wait := base
	for i := 1; i < attempt && wait < maxRetryDelay; i++ {
		wait *= 2
	}
	return min(wait, maxRetryDelay)
}
