// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import (
	"math/big"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ciarmolimarco/lisk/core/types"
)

func listTx(id string) *types.Transaction {
	return &types.Transaction{ID: id, Fee: big.NewInt(1)}
}

func TestTxListInsertionOrder(t *testing.T) {
	l := newTxList()
	for i := 0; i < 5; i++ {
		l.Put(listTx(strconv.Itoa(i)))
	}
	require.Equal(t, 5, l.Len())
	require.Equal(t, []string{"0", "1", "2", "3", "4"}, l.IDs())

	// Deleting from the middle preserves the order of the rest.
	require.True(t, l.Delete("2"))
	require.False(t, l.Delete("2"))
	require.Equal(t, []string{"0", "1", "3", "4"}, l.IDs())

	// Re-inserting an existing id replaces the body without moving it.
	replacement := listTx("1")
	replacement.Fee = big.NewInt(99)
	l.Put(replacement)
	require.Equal(t, []string{"0", "1", "3", "4"}, l.IDs())
	require.Equal(t, int64(99), l.Get("1").Fee.Int64())
}

func TestTxListFlattenSnapshot(t *testing.T) {
	l := newTxList()
	l.Put(listTx("a"))
	l.Put(listTx("b"))

	snapshot := l.Flatten()
	l.Delete("a")
	l.Delete("b")

	require.Len(t, snapshot, 2)
	require.Zero(t, l.Len())
	require.Nil(t, l.Get("a"))
}

func TestTxListEach(t *testing.T) {
	l := newTxList()
	l.Put(listTx("x"))
	l.Put(listTx("y"))

	var seen []string
	l.Each(func(tx *types.Transaction) { seen = append(seen, tx.ID) })
	require.Equal(t, []string{"x", "y"}, seen)
}
