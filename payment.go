// Copyright 2026 CloudWalk, Inc.

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cardledger

import (
	"github.com/cloudwalk/cardledger/money"
)

// PaymentStatus is the lifecycle status of a payment.
type PaymentStatus uint8

const (
	// StatusNonexistent is the zero status of an ID that was never used.
	StatusNonexistent PaymentStatus = iota
	// StatusActive is the status between make and revoke/reverse.
	StatusActive
	// StatusRevoked is the status after a revocation. The ID can be reused by
	// a future make exactly as if it were new.
	StatusRevoked
	// StatusReversed is the terminal status. All further operations on the ID
	// fail.
	StatusReversed
)

func (s PaymentStatus) String() string {
	switch s {
	case StatusNonexistent:
		return "NONEXISTENT"
	case StatusActive:
		return "ACTIVE"
	case StatusRevoked:
		return "REVOKED"
	case StatusReversed:
		return "REVERSED"
	default:
		return "UNKNOWN"
	}
}

// Payment is the snapshot of a payment record. Hooks receive the pre and post
// operation snapshots of the payment they fire for.
//
// The base amount is the part cashback applies to; the extra amount carries
// everything else (fees, tips). A sponsored payment has a non-null sponsor
// covering up to SubsidyLimit of the payment sum, base first.
type Payment struct {
	Status          PaymentStatus
	Payer           Account
	CashbackRate    uint16
	ConfirmedAmount uint64
	Sponsor         Account
	SubsidyLimit    uint64
	BaseAmount      uint64
	ExtraAmount     uint64
	RefundAmount    uint64
}

// SumAmount returns the total amount of the payment.
func (p Payment) SumAmount() uint64 {
	return p.BaseAmount + p.ExtraAmount
}

// CommonRemainder returns the payment sum net of refunds. The ledger keeps
// RefundAmount <= SumAmount, so the subtraction cannot go below zero.
func (p Payment) CommonRemainder() uint64 {
	return p.SumAmount() - p.RefundAmount
}

// UnconfirmedRemainder returns the part of the remainder not yet moved to the
// settlement account. The ledger keeps ConfirmedAmount <= CommonRemainder.
func (p Payment) UnconfirmedRemainder() uint64 {
	return p.CommonRemainder() - p.ConfirmedAmount
}

// PayerBaseAmount returns the part of the base amount the payer covers after
// the sponsor subsidy, clamped at zero.
func (p Payment) PayerBaseAmount() uint64 {
	return money.SubOrZero(p.BaseAmount, p.SubsidyLimit)
}

// PayerSumAmount returns the part of the payment sum the payer covers after
// the sponsor subsidy, clamped at zero.
func (p Payment) PayerSumAmount() uint64 {
	return money.SubOrZero(p.SumAmount(), p.SubsidyLimit)
}

// SponsorSumAmount returns the part of the payment sum the sponsor covers.
func (p Payment) SponsorSumAmount() uint64 {
	return p.SumAmount() - p.PayerSumAmount()
}

// SponsorRefund returns the sponsor's share of the cumulative refund, split
// pro-rata against the subsidy and capped by the subsidy limit.
func (p Payment) SponsorRefund() uint64 {
	assumed := p.RefundAmount
	if p.BaseAmount > p.SubsidyLimit {
		assumed = money.MulDiv(p.RefundAmount, p.SubsidyLimit, p.BaseAmount)
	}
	return money.Min(assumed, p.SubsidyLimit)
}

// PayerRefund returns the payer's share of the cumulative refund.
func (p Payment) PayerRefund() uint64 {
	return p.RefundAmount - p.SponsorRefund()
}

// PayerRemainder returns what the payer still covers net of their refund
// share. The refund split keeps PayerRefund <= PayerSumAmount.
func (p Payment) PayerRemainder() uint64 {
	return p.PayerSumAmount() - p.PayerRefund()
}

// SponsorRemainder returns what the sponsor still covers net of their refund
// share.
func (p Payment) SponsorRemainder() uint64 {
	return p.SponsorSumAmount() - p.SponsorRefund()
}

// CashbackEligibleBase returns the refund-adjusted part of the payer's base
// amount that cashback applies to, clamped at zero.
func (p Payment) CashbackEligibleBase() uint64 {
	return money.SubOrZero(p.PayerBaseAmount(), p.PayerRefund())
}

// CashbackOwed returns the cashback owed for the current state of the
// payment: the eligible base at the payment's rate, truncated. Payments that
// are not active owe nothing.
func (p Payment) CashbackOwed() uint64 {
	if p.Status != StatusActive {
		return 0
	}
	return money.ApplyRate(p.CashbackEligibleBase(), p.CashbackRate)
}

// Sponsored reports whether a sponsor subsidizes the payment.
func (p Payment) Sponsored() bool {
	return !p.Sponsor.Zero()
}

// PaymentStatistics aggregates over all active payments. It is updated
// atomically with every per-payment mutation.
type PaymentStatistics struct {
	// TotalUnconfirmedRemainder is the sum of UnconfirmedRemainder over all
	// active payments.
	TotalUnconfirmedRemainder uint64
}
