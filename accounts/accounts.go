// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accounts

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
	"sync"
)

var (
	// ErrMissingPublicKey is returned when an account lookup is attempted
	// without a public key.
	ErrMissingPublicKey = errors.New("missing public key")
)

// Account is the ledger-side view of an address that the pool consults while
// verifying and balance-checking transactions.
type Account struct {
	Address         string
	PublicKey       string
	SecondPublicKey string
	Balance         *big.Int

	// Multisignatures holds the co-signer public keys of the account's
	// multisignature group; empty for plain accounts.
	Multisignatures []string
	MultiMin        uint32
	MultiLifetime   uint32
}

func (a *Account) copy() *Account {
	cpy := *a
	cpy.Balance = new(big.Int)
	if a.Balance != nil {
		cpy.Balance.Set(a.Balance)
	}
	cpy.Multisignatures = append([]string(nil), a.Multisignatures...)
	return &cpy
}

// AddressFromPublicKey derives the textual address of a public key: the first
// eight bytes of its SHA-256 digest, read as a little-endian integer, with the
// network suffix appended.
func AddressFromPublicKey(publicKey string) string {
	raw, err := hex.DecodeString(publicKey)
	if err != nil {
		raw = []byte(publicKey)
	}
	digest := sha256.Sum256(raw)
	return strconv.FormatUint(binary.LittleEndian.Uint64(digest[:8]), 10) + "L"
}

// Store is an in-memory account registry. It satisfies the pool's Ledger
// contract and backs tests and the standalone daemon; a database-backed
// implementation would slot in behind the same interface.
type Store struct {
	mu          sync.RWMutex
	byAddress   map[string]*Account
	byPublicKey map[string]*Account
}

// NewStore creates an empty account store.
func NewStore() *Store {
	return &Store{
		byAddress:   make(map[string]*Account),
		byPublicKey: make(map[string]*Account),
	}
}

// SetAccountAndGet resolves the account registered for the public key,
// creating it with a zero balance if this is the first time the key is seen.
func (s *Store) SetAccountAndGet(publicKey string) (*Account, error) {
	if publicKey == "" {
		return nil, ErrMissingPublicKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.byPublicKey[publicKey]; ok {
		return acc.copy(), nil
	}
	acc := &Account{
		Address:   AddressFromPublicKey(publicKey),
		PublicKey: publicKey,
		Balance:   new(big.Int),
	}
	s.byAddress[acc.Address] = acc
	s.byPublicKey[publicKey] = acc
	return acc.copy(), nil
}

// GetAccount returns the account registered for the public key, or nil if the
// key is unknown.
func (s *Store) GetAccount(publicKey string) (*Account, error) {
	if publicKey == "" {
		return nil, ErrMissingPublicKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byPublicKey[publicKey]
	if !ok {
		return nil, nil
	}
	return acc.copy(), nil
}

// GetBalance returns the confirmed balance of an address. Unknown addresses
// hold zero.
func (s *Store) GetBalance(address string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acc, ok := s.byAddress[address]; ok && acc.Balance != nil {
		return new(big.Int).Set(acc.Balance), nil
	}
	return new(big.Int), nil
}

// Put upserts a fully formed account, indexing it by address and, when set,
// by public key. Used when seeding genesis state.
func (s *Store) Put(acc *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := acc.copy()
	s.byAddress[stored.Address] = stored
	if stored.PublicKey != "" {
		s.byPublicKey[stored.PublicKey] = stored
	}
}

// SetBalance overwrites the confirmed balance of an address, creating a bare
// account entry if none exists yet.
func (s *Store) SetBalance(address string, balance *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byAddress[address]
	if !ok {
		acc = &Account{Address: address}
		s.byAddress[address] = acc
	}
	acc.Balance = new(big.Int).Set(balance)
}
