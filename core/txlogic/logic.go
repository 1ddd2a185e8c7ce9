// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txlogic implements the structural half of the transaction verifier
// pipeline the pool drives. Cryptographic signature verification belongs to
// the signing layer and is deliberately absent here.
package txlogic

import (
	"errors"
	"fmt"

	"github.com/luxfi/log"

	"github.com/ciarmolimarco/lisk/accounts"
	"github.com/ciarmolimarco/lisk/core/types"
	"github.com/ciarmolimarco/lisk/params"
)

var (
	ErrMissingID         = errors.New("missing transaction id")
	ErrMissingSender     = errors.New("missing sender")
	ErrSenderMismatch    = errors.New("sender address does not match sender public key")
	ErrMissingFee        = errors.New("missing transaction fee")
	ErrNegativeAmount    = errors.New("negative transaction amount")
	ErrMissingAmount     = errors.New("transfer requires an amount")
	ErrMissingRecipient  = errors.New("transfer requires a recipient")
	ErrBadMultisigAsset  = errors.New("invalid multisignature asset")
	ErrDuplicateCosigner = errors.New("duplicate co-signer signature")
)

// Logic is a structural Verifier: it checks shape, ranges and addressing, and
// canonicalizes a transaction without touching cryptography.
type Logic struct {
	logger log.Logger
}

// New creates a structural transaction verifier.
func New(logger log.Logger) *Logic {
	return &Logic{logger: logger}
}

// Process validates the transaction against the resolved sender (and
// requester, when the multisignature path supplies one).
func (l *Logic) Process(tx *types.Transaction, sender, requester *accounts.Account) error {
	if tx.ID == "" {
		return ErrMissingID
	}
	if sender == nil {
		return ErrMissingSender
	}
	if tx.SenderID != "" && tx.SenderID != sender.Address {
		return fmt.Errorf("%w: %s != %s", ErrSenderMismatch, tx.SenderID, sender.Address)
	}
	if requester != nil && requester.PublicKey == "" {
		return fmt.Errorf("requester %s has no public key", requester.Address)
	}
	return nil
}

// ObjectNormalize brings the transaction to canonical form, filling the
// sender address from the public key and rejecting malformed payloads. The
// argument is mutated in place and returned.
func (l *Logic) ObjectNormalize(tx *types.Transaction) (*types.Transaction, error) {
	if tx.Fee == nil || tx.Fee.Sign() < 0 {
		return nil, ErrMissingFee
	}
	if tx.Amount != nil && tx.Amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if tx.SenderID == "" {
		tx.SenderID = accounts.AddressFromPublicKey(tx.SenderPublicKey)
	}

	switch tx.Type {
	case types.TypeSend:
		if tx.Amount == nil {
			return nil, ErrMissingAmount
		}
		if tx.RecipientID == "" {
			return nil, ErrMissingRecipient
		}
	case types.TypeMultisignature:
		if err := normalizeMultisigAsset(tx.Asset.Multisignature); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

func normalizeMultisigAsset(asset *types.MultisignatureAsset) error {
	if asset == nil {
		return fmt.Errorf("%w: missing asset", ErrBadMultisigAsset)
	}
	if asset.Lifetime < params.MinMultisigLifetimeHours || asset.Lifetime > params.MaxMultisigLifetimeHours {
		return fmt.Errorf("%w: lifetime %d out of range", ErrBadMultisigAsset, asset.Lifetime)
	}
	if len(asset.Keysgroup) == 0 || len(asset.Keysgroup) > params.MaxMultisigKeysgroup {
		return fmt.Errorf("%w: keysgroup size %d", ErrBadMultisigAsset, len(asset.Keysgroup))
	}
	if asset.Min < 1 || int(asset.Min) > len(asset.Keysgroup) {
		return fmt.Errorf("%w: min %d exceeds keysgroup", ErrBadMultisigAsset, asset.Min)
	}
	return nil
}

// Verify runs the final structural checks against the sender: co-signer
// multiplicity and, for multisignature registrations, signature counts within
// the declared group.
func (l *Logic) Verify(tx *types.Transaction, sender *accounts.Account) error {
	if sender == nil {
		return ErrMissingSender
	}
	if len(tx.Signatures) > 1 {
		seen := make(map[string]struct{}, len(tx.Signatures))
		for _, sig := range tx.Signatures {
			if _, ok := seen[sig]; ok {
				return ErrDuplicateCosigner
			}
			seen[sig] = struct{}{}
		}
	}
	if tx.Type == types.TypeMultisignature && tx.Asset.Multisignature != nil {
		if len(tx.Signatures) > len(tx.Asset.Multisignature.Keysgroup) {
			return fmt.Errorf("%w: %d signatures for %d keys", ErrBadMultisigAsset, len(tx.Signatures), len(tx.Asset.Multisignature.Keysgroup))
		}
	}
	return nil
}
