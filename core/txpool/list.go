// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import (
	"container/list"

	"github.com/ciarmolimarco/lisk/core/types"
)

// txList is an insertion-ordered set of transactions keyed by id. It pairs a
// map for O(1) lookup and deletion with a doubly-linked list for FIFO scans.
type txList struct {
	items map[string]*list.Element
	order *list.List
}

func newTxList() *txList {
	return &txList{
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

func (l *txList) Len() int {
	return len(l.items)
}

func (l *txList) Has(id string) bool {
	_, ok := l.items[id]
	return ok
}

func (l *txList) Get(id string) *types.Transaction {
	if elem, ok := l.items[id]; ok {
		return elem.Value.(*types.Transaction)
	}
	return nil
}

// Put inserts the transaction at the back of the scan order. Re-inserting an
// id replaces the body in place without moving its position.
func (l *txList) Put(tx *types.Transaction) {
	if elem, ok := l.items[tx.ID]; ok {
		elem.Value = tx
		return
	}
	l.items[tx.ID] = l.order.PushBack(tx)
}

func (l *txList) Delete(id string) bool {
	elem, ok := l.items[id]
	if !ok {
		return false
	}
	l.order.Remove(elem)
	delete(l.items, id)
	return true
}

// Each visits the transactions in insertion order. The callback must not
// mutate the list.
func (l *txList) Each(fn func(*types.Transaction)) {
	for elem := l.order.Front(); elem != nil; elem = elem.Next() {
		fn(elem.Value.(*types.Transaction))
	}
}

// Flatten returns a snapshot of the transactions in insertion order. The
// slice is safe to hold across list mutations.
func (l *txList) Flatten() []*types.Transaction {
	txs := make([]*types.Transaction, 0, l.order.Len())
	for elem := l.order.Front(); elem != nil; elem = elem.Next() {
		txs = append(txs, elem.Value.(*types.Transaction))
	}
	return txs
}

// IDs returns the transaction ids in insertion order.
func (l *txList) IDs() []string {
	ids := make([]string, 0, l.order.Len())
	for elem := l.order.Front(); elem != nil; elem = elem.Next() {
		ids = append(ids, elem.Value.(*types.Transaction).ID)
	}
	return ids
}
