// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txpool buffers, validates and orders candidate transactions between
// their arrival and their inclusion in a block. Transactions enter over
// gossip, a client API or block rollback; they leave when a block includes
// them, when they expire, or when verification rejects them.
package txpool

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/luxfi/geth/event"
	"github.com/luxfi/geth/metrics"
	"github.com/luxfi/log"

	"github.com/ciarmolimarco/lisk/accounts"
	"github.com/ciarmolimarco/lisk/core/types"
	"github.com/ciarmolimarco/lisk/jobsqueue"
	"github.com/ciarmolimarco/lisk/params"
)

const (
	// Job names registered on the scheduler. The queue guarantees that two
	// invocations of the same name never overlap.
	bundleJobName = "txPoolNextBundle"
	expiryJobName = "txPoolNextExpiry"
	resetJobName  = "txPoolNextReset"

	// invalidResetFactor scales the expiry interval into the invalid-id reset
	// interval. The blacklist keeps rejecting a bad id for several minutes
	// while staying bounded.
	invalidResetFactor = 10
)

var (
	// ErrTxPoolFull is returned when the union of the body partitions has
	// reached the configured storage limit. Transient.
	ErrTxPoolFull = errors.New("transaction pool is full")

	// ErrAlreadyInvalid is returned when an id is blacklisted from an earlier
	// verification failure. Non-retryable until the next invalid reset.
	ErrAlreadyInvalid = errors.New("transaction already processed as invalid")

	// ErrAlreadyInPool is returned for duplicate admissions; the existing
	// copy stands.
	ErrAlreadyInPool = errors.New("transaction already in pool")

	// ErrRequesterNotFound is returned when a multisignature transaction
	// names a requester key with no known account.
	ErrRequesterNotFound = errors.New("requester not found")

	// ErrInsufficientFunds is returned when the effective balance of the
	// sender cannot cover amount plus fee.
	ErrInsufficientFunds = errors.New("account does not have enough funds")

	// ErrInvalidFilter is returned by GetAll for an unknown filter name.
	ErrInvalidFilter = errors.New("invalid filter")
)

var (
	unverifiedGauge = metrics.NewRegisteredGauge("txpool/unverified", nil)
	pendingGauge    = metrics.NewRegisteredGauge("txpool/pending", nil)
	readyGauge      = metrics.NewRegisteredGauge("txpool/ready", nil)
	invalidGauge    = metrics.NewRegisteredGauge("txpool/invalid", nil)

	overflowedTxMeter = metrics.NewRegisteredMeter("txpool/overflowed", nil)
	duplicateTxMeter  = metrics.NewRegisteredMeter("txpool/duplicate", nil)
	invalidTxMeter    = metrics.NewRegisteredMeter("txpool/markinvalid", nil)
	nofundsTxMeter    = metrics.NewRegisteredMeter("txpool/nofunds", nil)
	expiredTxMeter    = metrics.NewRegisteredMeter("txpool/expired", nil)

	processTimer = metrics.NewRegisteredTimer("txpool/process", nil)
)

// Status is the partition a transaction currently occupies, as seen by Get.
type Status uint

const (
	StatusNotInPool Status = iota
	StatusUnverified
	StatusPending
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	default:
		return "not-in-pool"
	}
}

// Usage holds the per-partition entry counts.
type Usage struct {
	Unverified int `json:"unverified"`
	Pending    int `json:"pending"`
	Ready      int `json:"ready"`
}

// QueryParams narrows a GetAll query. ID and PublicKey select transactions for
// the address filters; Reverse and Limit shape the id listings.
type QueryParams struct {
	ID        string
	PublicKey string
	Reverse   bool
	Limit     int
}

// GroupedTxs is the partition-tagged result of an address filter.
type GroupedTxs struct {
	Unverified []*types.Transaction `json:"unverified"`
	Pending    []*types.Transaction `json:"pending"`
	Ready      []*types.Transaction `json:"ready"`
}

// QueryResult is the answer to a GetAll query: IDs for partition filters,
// Grouped for address filters.
type QueryResult struct {
	IDs     []string    `json:"ids,omitempty"`
	Grouped *GroupedTxs `json:"transactions,omitempty"`
}

// TxPool is the staging area for candidate transactions. State is split over
// three body partitions (unverified, pending, ready) plus a negative cache of
// invalid ids; every public operation holds the pool mutex for its full
// extent, preserving single-writer semantics over all four.
type TxPool struct {
	config   params.PoolConfig
	ledger   Ledger
	verifier Verifier
	logger   log.Logger

	mu         sync.Mutex
	unverified *txList
	pending    *txList
	ready      *txList
	invalid    mapset.Set[string]

	txFeed event.Feed
	scope  event.SubscriptionScope
}

// New creates a transaction pool over the given ledger and verifier. The pool
// is passive until its jobs are registered on a scheduler; every operation can
// also be driven directly, which is how tests exercise it.
func New(config params.PoolConfig, ledger Ledger, verifier Verifier, logger log.Logger) *TxPool {
	config = config.Sanitize(logger)

	return &TxPool{
		config:     config,
		ledger:     ledger,
		verifier:   verifier,
		logger:     logger,
		unverified: newTxList(),
		pending:    newTxList(),
		ready:      newTxList(),
		invalid:    mapset.NewThreadUnsafeSet[string](),
	}
}

// Config returns the sanitized pool configuration, including the broadcast
// parameters recorded for the gossip layer.
func (p *TxPool) Config() params.PoolConfig {
	return p.config
}

// RegisterJobs schedules the three periodic pool jobs on the queue:
// processing, expiry, and the invalid-id reset at ten expiry intervals.
func (p *TxPool) RegisterJobs(queue *jobsqueue.Queue) error {
	if err := queue.Register(bundleJobName, p.ProcessPool, p.config.ProcessInterval); err != nil {
		return err
	}
	if err := queue.Register(expiryJobName, func() { p.ExpireTransactions() }, p.config.ExpiryInterval); err != nil {
		return err
	}
	return queue.Register(resetJobName, func() { p.ResetInvalidTransactions() }, invalidResetFactor*p.config.ExpiryInterval)
}

// Close unsubscribes everyone still listening for pool events.
func (p *TxPool) Close() {
	p.scope.Close()
}

// SubscribeUnconfirmed registers a subscription for transactions that clear
// the verifier pipeline, the hook the broadcast layer relays gossip from.
func (p *TxPool) SubscribeUnconfirmed(ch chan<- UnconfirmedTxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

// Add admits transactions into the unverified partition. Each one is checked
// against the storage limit, the invalid blacklist and the body partitions;
// the batch stops at the first rejection and returns its error. Admitted
// transactions are stamped with the arrival time.
func (p *TxPool) Add(txs ...*types.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.syncGauges()

	for _, tx := range txs {
		if err := p.add(tx); err != nil {
			return err
		}
	}
	return nil
}

func (p *TxPool) add(tx *types.Transaction) error {
	if p.unverified.Len()+p.pending.Len()+p.ready.Len() >= p.config.StorageTxsLimit {
		overflowedTxMeter.Mark(1)
		return fmt.Errorf("%w: %d transactions", ErrTxPoolFull, p.config.StorageTxsLimit)
	}
	if p.invalid.Contains(tx.ID) {
		return fmt.Errorf("%w: %s", ErrAlreadyInvalid, tx.ID)
	}
	if p.unverified.Has(tx.ID) || p.pending.Has(tx.ID) || p.ready.Has(tx.ID) {
		duplicateTxMeter.Mark(1)
		return fmt.Errorf("%w: %s", ErrAlreadyInPool, tx.ID)
	}
	tx.ReceivedAt = time.Now()
	p.unverified.Put(tx)
	p.logger.Debug("Admitted unverified transaction", "id", tx.ID, "type", tx.Type)
	return nil
}

// AddReady force-inserts transactions into the ready partition. The ledger
// layer uses it when applying or undoing blocks, so there is no capacity or
// duplicate check; any copy living in another partition is removed first and
// the whole batch shares one arrival stamp.
func (p *TxPool) AddReady(txs ...*types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.syncGauges()

	receivedAt := time.Now()
	for _, tx := range txs {
		p.removeFromLists(tx.ID)
		tx.ReceivedAt = receivedAt
		p.ready.Put(tx)
	}
}

// Remove deletes a transaction from whichever body partitions hold it and
// returns their statuses. More than one hit means the partition exclusivity
// invariant was broken and is logged loudly; the invalid blacklist is not
// touched.
func (p *TxPool) Remove(id string) []Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.syncGauges()

	removed := p.removeFromLists(id)
	if len(removed) > 1 {
		p.logger.Warn("Transaction removed from multiple partitions", "id", id, "partitions", statusNames(removed))
	}
	return removed
}

// removeFromLists is the one deletion helper every call site uses: it takes
// the id, probes each partition in scan order and reports the hits.
func (p *TxPool) removeFromLists(id string) []Status {
	var removed []Status
	if p.unverified.Delete(id) {
		removed = append(removed, StatusUnverified)
	}
	if p.pending.Delete(id) {
		removed = append(removed, StatusPending)
	}
	if p.ready.Delete(id) {
		removed = append(removed, StatusReady)
	}
	return removed
}

func statusNames(statuses []Status) []string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}
	return names
}

// Get returns the transaction with the given id and the partition holding it,
// or (nil, StatusNotInPool).
func (p *TxPool) Get(id string) (*types.Transaction, Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tx := p.unverified.Get(id); tx != nil {
		return tx, StatusUnverified
	}
	if tx := p.pending.Get(id); tx != nil {
		return tx, StatusPending
	}
	if tx := p.ready.Get(id); tx != nil {
		return tx, StatusReady
	}
	return nil, StatusNotInPool
}

// Has reports whether any body partition holds the id.
func (p *TxPool) Has(id string) bool {
	_, status := p.Get(id)
	return status != StatusNotInPool
}

// Count returns the number of transactions across the body partitions.
func (p *TxPool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unverified.Len() + p.pending.Len() + p.ready.Len()
}

// GetUsage returns the per-partition entry counts.
func (p *TxPool) GetUsage() Usage {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Usage{
		Unverified: p.unverified.Len(),
		Pending:    p.pending.Len(),
		Ready:      p.ready.Len(),
	}
}

// GetAll is the composite query surface. Partition filters ("unverified",
// "pending", "ready") list ids, optionally reversed and truncated; address
// filters ("sender_id", "recipient_id") return matching transactions tagged
// by partition. Unknown filters yield ErrInvalidFilter as a value, never a
// panic.
func (p *TxPool) GetAll(filter string, q QueryParams) (*QueryResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch filter {
	case "unverified":
		return &QueryResult{IDs: shapeIDs(p.unverified.IDs(), q)}, nil
	case "pending":
		return &QueryResult{IDs: shapeIDs(p.pending.IDs(), q)}, nil
	case "ready":
		return &QueryResult{IDs: shapeIDs(p.ready.IDs(), q)}, nil
	case "sender_id":
		return &QueryResult{Grouped: p.match(func(tx *types.Transaction) bool {
			return (q.ID != "" && tx.SenderID == q.ID) || (q.PublicKey != "" && tx.SenderPublicKey == q.PublicKey)
		})}, nil
	case "recipient_id":
		return &QueryResult{Grouped: p.match(func(tx *types.Transaction) bool {
			return q.ID != "" && tx.RecipientID == q.ID
		})}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
}

func shapeIDs(ids []string, q QueryParams) []string {
	if q.Reverse {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}
	return ids
}

func (p *TxPool) match(pred func(*types.Transaction) bool) *GroupedTxs {
	grouped := &GroupedTxs{}
	p.unverified.Each(func(tx *types.Transaction) {
		if pred(tx) {
			grouped.Unverified = append(grouped.Unverified, tx)
		}
	})
	p.pending.Each(func(tx *types.Transaction) {
		if pred(tx) {
			grouped.Pending = append(grouped.Pending, tx)
		}
	})
	p.ready.Each(func(tx *types.Transaction) {
		if pred(tx) {
			grouped.Ready = append(grouped.Ready, tx)
		}
	})
	return grouped
}

// GetReady returns a snapshot of the ready partition ordered by fee
// descending and, within equal fees, arrival ascending. This is the draw
// function of the block producer; the ordering is a hard contract. A
// non-positive limit returns everything.
func (p *TxPool) GetReady(limit int) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	txs := p.ready.Flatten()
	sort.SliceStable(txs, func(i, j int) bool {
		if c := txs[i].Fee.Cmp(txs[j].Fee); c != 0 {
			return c > 0
		}
		return txs[i].ReceivedAt.Before(txs[j].ReceivedAt)
	})
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs
}

// ProcessPool runs one processing tick: drain the unverified partition
// through the verifier pipeline and the balance check, then promote every
// transaction that was already pending when the tick began. Transactions this
// tick routes to pending stay there until the next tick. Per-entry failures
// are logged and skipped; the tick itself never fails.
func (p *TxPool) ProcessPool() {
	defer func(t0 time.Time) { processTimer.Update(time.Since(t0)) }(time.Now())

	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.syncGauges()

	promotable := p.pending.Flatten()
	p.processUnverified()
	p.promotePending(promotable)
}

// processUnverified drains the unverified partition in insertion order. The
// scan walks a snapshot, so transactions admitted while it runs wait for the
// next tick.
func (p *TxPool) processUnverified() {
	for _, tx := range p.unverified.Flatten() {
		p.unverified.Delete(tx.ID)

		if err := p.processUnverifiedTransaction(tx, true); err != nil {
			p.invalid.Add(tx.ID)
			invalidTxMeter.Mark(1)
			p.logger.Error("Failed to process unverified transaction", "id", tx.ID, "err", err)
			continue
		}
		if err := p.checkBalance(tx, tx.SenderID); err != nil {
			// Balances move as blocks land, so the id is dropped without
			// blacklisting and may be gossiped again later.
			nofundsTxMeter.Mark(1)
			p.logger.Error("Transaction exceeds effective balance", "id", tx.ID, "sender", tx.SenderID, "err", err)
			continue
		}
		tx.ReceivedAt = time.Now()

		// Any one of the three conditions defers scheduling: registering a
		// multisignature group, carrying co-signatures, or a timestamp still
		// in the future.
		if tx.Type == types.TypeMultisignature || tx.HasCosigners() || types.ToEpochSeconds(tx.ReceivedAt) < tx.Timestamp {
			p.pending.Put(tx)
		} else {
			p.ready.Put(tx)
		}
	}
}

// promotePending moves the given pending transactions to ready, in order and
// without re-checking signature completeness or timestamp maturity.
func (p *TxPool) promotePending(txs []*types.Transaction) {
	for _, tx := range txs {
		p.pending.Delete(tx.ID)
		p.ready.Put(tx)
	}
}

// processUnverifiedTransaction runs the verifier pipeline for one
// transaction: resolve the sender (creating the account if needed), resolve
// the requester when the sender has a multisignature group, then
// Process → ObjectNormalize → Verify. On success the unconfirmed-transaction
// event is posted for the broadcast layer.
func (p *TxPool) processUnverifiedTransaction(tx *types.Transaction, broadcast bool) error {
	sender, err := p.ledger.SetAccountAndGet(tx.SenderPublicKey)
	if err != nil {
		return fmt.Errorf("failed to resolve sender account: %w", err)
	}

	var requester *accounts.Account
	if len(sender.Multisignatures) > 0 && tx.RequesterPublicKey != "" {
		requester, err = p.ledger.GetAccount(tx.RequesterPublicKey)
		if err != nil {
			return fmt.Errorf("failed to resolve requester account: %w", err)
		}
		if requester == nil {
			return ErrRequesterNotFound
		}
	}

	if err := p.verifier.Process(tx, sender, requester); err != nil {
		return err
	}
	normalized, err := p.verifier.ObjectNormalize(tx)
	if err != nil {
		return err
	}
	if normalized != tx {
		*tx = *normalized
	}
	if err := p.verifier.Verify(tx, sender); err != nil {
		return err
	}

	p.txFeed.Send(UnconfirmedTxEvent{Tx: tx, Broadcast: broadcast})
	return nil
}

// CheckBalance reports whether the sender address can cover the transaction
// out of its effective balance: the confirmed balance adjusted by every
// debit and TypeSend credit already staged in the pool for that address.
func (p *TxPool) CheckBalance(tx *types.Transaction, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkBalance(tx, address)
}

func (p *TxPool) checkBalance(tx *types.Transaction, address string) error {
	confirmed, err := p.ledger.GetBalance(address)
	if err != nil {
		return fmt.Errorf("failed to fetch balance of %s: %w", address, err)
	}

	poolBalance := new(big.Int)
	for _, partition := range []*txList{p.unverified, p.pending, p.ready} {
		partition.Each(func(ptx *types.Transaction) {
			if ptx.SenderID == address {
				if ptx.Amount != nil {
					poolBalance.Sub(poolBalance, ptx.Amount)
				}
				if ptx.Fee != nil {
					poolBalance.Sub(poolBalance, ptx.Fee)
				}
			}
			// Only transfers move value to the recipient inside the pool's
			// projection; other kinds keep their amount out of reach until
			// confirmed.
			if ptx.RecipientID == address && ptx.Type == types.TypeSend && ptx.Amount != nil {
				poolBalance.Add(poolBalance, ptx.Amount)
			}
		})
	}

	effective := poolBalance.Add(poolBalance, confirmed)
	if effective.Cmp(tx.Cost()) < 0 {
		display := new(big.Rat).SetFrac(effective, big.NewInt(params.FixedPoint)).FloatString(8)
		return fmt.Errorf("%w: %s balance %s", ErrInsufficientFunds, address, display)
	}
	return nil
}

// ExpireTransactions evicts aged transactions from every body partition,
// scanning unverified, then pending, then ready, and returns the expired ids.
// The timeout depends on the transaction kind: multisignature registrations
// live for their declared lifetime, co-signed transactions get eight times
// the base timeout, everything else the base timeout.
func (p *TxPool) ExpireTransactions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.syncGauges()

	now := time.Now()
	var expired []string
	for _, partition := range []*txList{p.unverified, p.pending, p.ready} {
		for _, tx := range partition.Flatten() {
			timeout := p.txTimeoutSeconds(tx)
			age := now.Unix() - tx.ReceivedAt.Unix()
			if age <= timeout {
				continue
			}
			partition.Delete(tx.ID)
			expired = append(expired, tx.ID)
			expiredTxMeter.Mark(1)
			p.logger.Info("Expired transaction", "id", tx.ID, "age", age, "timeout", timeout)
		}
	}
	return expired
}

// txTimeoutSeconds returns the pool residency allowed for a transaction, in
// whole seconds.
func (p *TxPool) txTimeoutSeconds(tx *types.Transaction) int64 {
	if tx.Type == types.TypeMultisignature && tx.Asset.Multisignature != nil {
		return int64(tx.Asset.Multisignature.Lifetime) * 3600
	}
	base := int64(p.config.UnconfirmedTxTimeout / time.Second)
	if tx.HasCosigners() {
		return base * 8
	}
	return base
}

// ResetInvalidTransactions empties the invalid-id blacklist and returns the
// number of ids cleared. Ids rejected earlier become admissible again.
func (p *TxPool) ResetInvalidTransactions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.syncGauges()

	count := p.invalid.Cardinality()
	p.invalid.Clear()
	if count > 0 {
		p.logger.Info("Cleared invalid transaction ids", "count", count)
	}
	return count
}

// syncGauges republishes the partition sizes. Called with the pool lock held
// after every mutating operation, so the gauges always match the counts.
func (p *TxPool) syncGauges() {
	unverifiedGauge.Update(int64(p.unverified.Len()))
	pendingGauge.Update(int64(p.pending.Len()))
	readyGauge.Update(int64(p.ready.Len()))
	invalidGauge.Update(int64(p.invalid.Cardinality()))
}
