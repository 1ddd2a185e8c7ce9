// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accounts

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressFromPublicKey(t *testing.T) {
	addr := AddressFromPublicKey("5d036a858ce89f844491762eb89e2bfbd50a4a0a0da658e4b2628b25b117ae09")
	require.True(t, strings.HasSuffix(addr, "L"))

	// Deterministic, and distinct keys map to distinct addresses.
	require.Equal(t, addr, AddressFromPublicKey("5d036a858ce89f844491762eb89e2bfbd50a4a0a0da658e4b2628b25b117ae09"))
	require.NotEqual(t, addr, AddressFromPublicKey("ff036a858ce89f844491762eb89e2bfbd50a4a0a0da658e4b2628b25b117ae09"))

	// Non-hex input is hashed as raw bytes instead of being rejected.
	require.True(t, strings.HasSuffix(AddressFromPublicKey("not-hex"), "L"))
}

func TestSetAccountAndGetCreates(t *testing.T) {
	store := NewStore()

	acc, err := store.SetAccountAndGet("pk1")
	require.NoError(t, err)
	require.Equal(t, AddressFromPublicKey("pk1"), acc.Address)
	require.Zero(t, acc.Balance.Sign())

	// Second resolution returns the same account.
	again, err := store.SetAccountAndGet("pk1")
	require.NoError(t, err)
	require.Equal(t, acc.Address, again.Address)

	_, err = store.SetAccountAndGet("")
	require.ErrorIs(t, err, ErrMissingPublicKey)
}

func TestGetAccountUnknownIsNil(t *testing.T) {
	store := NewStore()

	acc, err := store.GetAccount("ghost")
	require.NoError(t, err)
	require.Nil(t, acc)

	_, err = store.GetAccount("")
	require.ErrorIs(t, err, ErrMissingPublicKey)
}

func TestGetBalance(t *testing.T) {
	store := NewStore()

	// Unknown addresses hold zero.
	balance, err := store.GetBalance("404L")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	store.SetBalance("1L", big.NewInt(250))
	balance, err = store.GetBalance("1L")
	require.NoError(t, err)
	require.Equal(t, int64(250), balance.Int64())

	// Callers get copies, not the stored integer.
	balance.SetInt64(0)
	balance, err = store.GetBalance("1L")
	require.NoError(t, err)
	require.Equal(t, int64(250), balance.Int64())
}

func TestPutIndexesByKeyAndAddress(t *testing.T) {
	store := NewStore()
	store.Put(&Account{
		Address:         "1L",
		PublicKey:       "pk1",
		Balance:         big.NewInt(7),
		Multisignatures: []string{"k1"},
	})

	acc, err := store.GetAccount("pk1")
	require.NoError(t, err)
	require.Equal(t, "1L", acc.Address)
	require.Equal(t, []string{"k1"}, acc.Multisignatures)

	balance, err := store.GetBalance("1L")
	require.NoError(t, err)
	require.Equal(t, int64(7), balance.Int64())
}
