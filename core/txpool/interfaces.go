// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import (
	"math/big"

	"github.com/ciarmolimarco/lisk/accounts"
	"github.com/ciarmolimarco/lisk/core/types"
)

// Ledger is the minimal account-state surface the pool needs. Exists to allow
// mocking the live ledger out of tests.
//
// Ledger implementations must not call back into the pool: collaborator calls
// run with the pool lock held, and work triggered from inside one lands on
// the next processing tick, not the current one.
type Ledger interface {
	// SetAccountAndGet resolves the account for a public key, creating it if
	// this is the first time the key is seen.
	SetAccountAndGet(publicKey string) (*accounts.Account, error)

	// GetAccount returns the account for a public key, or nil when unknown.
	GetAccount(publicKey string) (*accounts.Account, error)

	// GetBalance returns the confirmed balance of an address.
	GetBalance(address string) (*big.Int, error)
}

// Verifier runs the transaction-logic pipeline the pool drives for every
// unverified transaction: Process, then ObjectNormalize, then Verify. The
// first failure short-circuits. Cryptographic checks live behind this
// interface; the pool never inspects signatures itself.
//
// The reentrancy rule of Ledger applies here too.
type Verifier interface {
	Process(tx *types.Transaction, sender, requester *accounts.Account) error

	// ObjectNormalize returns the canonical form of the transaction. It may
	// return its argument mutated in place or a fresh value.
	ObjectNormalize(tx *types.Transaction) (*types.Transaction, error)

	Verify(tx *types.Transaction, sender *accounts.Account) error
}
