// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import "github.com/ciarmolimarco/lisk/core/types"

// UnconfirmedTxEvent is posted on the pool's feed each time a transaction
// clears the verifier pipeline. Broadcast tells the gossip layer whether the
// transaction should be relayed to peers.
type UnconfirmedTxEvent struct {
	Tx        *types.Transaction
	Broadcast bool
}
