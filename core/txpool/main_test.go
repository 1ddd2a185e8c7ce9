// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain uses goleak to verify tests in this package do not leak unexpected
// goroutines.
func TestMain(m *testing.M) {
	opts := []goleak.Option{
		// No good way to shut down this goroutine:
		goleak.IgnoreTopFunction("github.com/luxfi/geth/metrics.(*meterArbiter).tick"),
	}
	goleak.VerifyTestMain(m, opts...)
}
