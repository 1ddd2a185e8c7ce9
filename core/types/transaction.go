// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ciarmolimarco/lisk/params"
)

// TxType is the enumerated kind of a transaction. The pool only branches on
// TypeSend and TypeMultisignature; every other kind is passed through.
type TxType uint8

const (
	TypeSend TxType = iota
	TypeSecondSignature
	TypeDelegate
	TypeVote
	TypeMultisignature
	TypeDapp
	TypeInTransfer
	TypeOutTransfer
)

func (t TxType) String() string {
	switch t {
	case TypeSend:
		return "send"
	case TypeSecondSignature:
		return "secondsignature"
	case TypeDelegate:
		return "delegate"
	case TypeVote:
		return "vote"
	case TypeMultisignature:
		return "multisignature"
	case TypeDapp:
		return "dapp"
	case TypeInTransfer:
		return "intransfer"
	case TypeOutTransfer:
		return "outtransfer"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// MultisignatureAsset is the payload of a multisignature registration.
// Lifetime is expressed in hours and bounds the registration's pool residency.
type MultisignatureAsset struct {
	Min       uint32   `json:"min"`
	Lifetime  uint32   `json:"lifetime"`
	Keysgroup []string `json:"keysgroup"`
}

// Asset carries the type-specific payload of a transaction. Only the fields
// the pool inspects are modeled; everything else rides along opaquely.
type Asset struct {
	Multisignature *MultisignatureAsset `json:"multisignature,omitempty"`
}

// Transaction is a candidate ledger operation as it arrives over gossip or
// from a client. Amount and Fee are base units; both must be handled with
// arbitrary precision since pool-wide sums exceed the 64-bit range.
type Transaction struct {
	ID                 string   `json:"id"`
	Type               TxType   `json:"type"`
	Timestamp          int64    `json:"timestamp"`
	SenderPublicKey    string   `json:"senderPublicKey"`
	RequesterPublicKey string   `json:"requesterPublicKey,omitempty"`
	SenderID           string   `json:"senderId"`
	RecipientID        string   `json:"recipientId,omitempty"`
	Amount             *big.Int `json:"amount,omitempty"`
	Fee                *big.Int `json:"fee"`
	Signature          string   `json:"signature,omitempty"`
	SignSignature      string   `json:"signSignature,omitempty"`
	Signatures         []string `json:"signatures,omitempty"`
	Asset              Asset    `json:"asset"`

	// ReceivedAt is stamped by the pool on admission and again on promotion.
	// It is never taken from the wire.
	ReceivedAt time.Time `json:"-"`
}

// Cost returns amount+fee, the balance a sender needs to cover the
// transaction. Types that carry no amount cost their fee alone.
func (tx *Transaction) Cost() *big.Int {
	cost := new(big.Int)
	if tx.Amount != nil {
		cost.Set(tx.Amount)
	}
	if tx.Fee != nil {
		cost.Add(cost, tx.Fee)
	}
	return cost
}

// HasCosigners reports whether the transaction carries co-signer signatures,
// which routes it through the multisignature pending path.
func (tx *Transaction) HasCosigners() bool {
	return len(tx.Signatures) > 0
}

// ToEpochSeconds converts a wall-clock instant to whole seconds since the
// protocol epoch. Instants before the epoch yield negative values.
func ToEpochSeconds(t time.Time) int64 {
	return t.Unix() - params.EpochTime.Unix()
}

// FromEpochSeconds converts a protocol-epoch timestamp back to wall-clock time.
func FromEpochSeconds(sec int64) time.Time {
	return params.EpochTime.Add(time.Duration(sec) * time.Second)
}
