// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package params

import "time"

const (
	// FixedPoint is the number of base units in one whole token. Amounts and
	// fees are carried in base units; FixedPoint is only used when formatting
	// balances for humans.
	FixedPoint int64 = 100000000

	// MaxMultisigLifetimeHours bounds the lifetime field of a multisignature
	// registration. A pending multisignature transaction stays in the pool for
	// at most this many hours.
	MaxMultisigLifetimeHours = 72

	// MinMultisigLifetimeHours is the smallest accepted multisignature lifetime.
	MinMultisigLifetimeHours = 1

	// MaxMultisigKeysgroup caps the number of co-signer keys in a group.
	MaxMultisigKeysgroup = 15
)

// EpochTime is the protocol epoch. Transaction timestamps count seconds from
// this instant, not from the Unix epoch.
var EpochTime = time.Date(2016, time.May, 24, 17, 0, 0, 0, time.UTC)
