// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package params

import (
	"time"

	"github.com/luxfi/log"
)

// PoolConfig are the configuration parameters of the transaction pool.
type PoolConfig struct {
	// BroadcastInterval and ReleaseLimit are consumed by the broadcast layer;
	// the pool records them so a single config block describes the whole
	// unconfirmed-transaction path.
	BroadcastInterval time.Duration
	ReleaseLimit      int

	// StorageTxsLimit caps the union of the unverified, pending and ready
	// partitions. Admissions beyond it are rejected.
	StorageTxsLimit int

	// ProcessInterval is the period of the verification/promotion job.
	ProcessInterval time.Duration

	// ExpiryInterval is the period of the expiry job. The invalid-id reset job
	// runs every ten expiry intervals.
	ExpiryInterval time.Duration

	// UnconfirmedTxTimeout is the default pool residency for a transaction.
	// Transactions carrying co-signatures get eight times this; multisignature
	// registrations use their own lifetime field instead.
	UnconfirmedTxTimeout time.Duration
}

// DefaultPoolConfig contains the default configuration for the transaction pool.
var DefaultPoolConfig = PoolConfig{
	BroadcastInterval: 5 * time.Second,
	ReleaseLimit:      25,

	StorageTxsLimit: 4000,
	ProcessInterval: 30 * time.Second,
	ExpiryInterval:  30 * time.Second,

	UnconfirmedTxTimeout: 10800 * time.Second,
}

// Sanitize checks the provided user configuration and changes anything that is
// unreasonable or unworkable.
func (config PoolConfig) Sanitize(logger log.Logger) PoolConfig {
	conf := config
	if conf.StorageTxsLimit < 1 {
		logger.Warn("Sanitizing invalid txpool storage limit", "provided", conf.StorageTxsLimit, "updated", DefaultPoolConfig.StorageTxsLimit)
		conf.StorageTxsLimit = DefaultPoolConfig.StorageTxsLimit
	}
	if conf.ProcessInterval < time.Millisecond {
		logger.Warn("Sanitizing invalid txpool process interval", "provided", conf.ProcessInterval, "updated", DefaultPoolConfig.ProcessInterval)
		conf.ProcessInterval = DefaultPoolConfig.ProcessInterval
	}
	if conf.ExpiryInterval < time.Millisecond {
		logger.Warn("Sanitizing invalid txpool expiry interval", "provided", conf.ExpiryInterval, "updated", DefaultPoolConfig.ExpiryInterval)
		conf.ExpiryInterval = DefaultPoolConfig.ExpiryInterval
	}
	if conf.UnconfirmedTxTimeout < time.Second {
		logger.Warn("Sanitizing invalid unconfirmed transaction timeout", "provided", conf.UnconfirmedTxTimeout, "updated", DefaultPoolConfig.UnconfirmedTxTimeout)
		conf.UnconfirmedTxTimeout = DefaultPoolConfig.UnconfirmedTxTimeout
	}
	if conf.ReleaseLimit < 1 {
		logger.Warn("Sanitizing invalid broadcast release limit", "provided", conf.ReleaseLimit, "updated", DefaultPoolConfig.ReleaseLimit)
		conf.ReleaseLimit = DefaultPoolConfig.ReleaseLimit
	}
	if conf.BroadcastInterval < time.Millisecond {
		logger.Warn("Sanitizing invalid broadcast interval", "provided", conf.BroadcastInterval, "updated", DefaultPoolConfig.BroadcastInterval)
		conf.BroadcastInterval = DefaultPoolConfig.BroadcastInterval
	}
	return conf
}
