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
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/cloudwalk/cardledger/authz"
	"github.com/cloudwalk/cardledger/funding"
	"github.com/cloudwalk/cardledger/money"
	"github.com/cloudwalk/cardledger/otel/otelutil"
	"github.com/cloudwalk/cardledger/uuidv7"
)

// CashbackSource reports the cumulative cashback granted against a payment.
// The cashback engine implements it; the ledger only reads through it so the
// granted amount can be mirrored on payment reads.
type CashbackSource interface {
	GrantedCashback(id PaymentID) uint64
}

// Ledger owns the payment records and the aggregate statistics and drives all
// fund movement between payer, sponsor, custody and settlement.
//
// Every mutating operation is serialized under a single lock and runs inside
// one funds mover transaction. Hook subscribers are invoked after the
// operation's state changes and fund legs are in place, inside the same
// commit unit: a subscriber failure rolls the whole operation back.
type Ledger struct {
	mu             sync.Mutex
	gate           authz.Gate
	funds          funding.Contract
	hooks          *HookDispatcher
	cashback       CashbackSource
	nextTransferID func() ([]byte, error)

	custody      Account
	settlement   Account
	cashbackRate uint16

	payments map[PaymentID]Payment
	stats    PaymentStatistics
}

// NewLedger returns a ledger moving funds through the given funds mover and
// consulting the gate before every operation.
func NewLedger(gate authz.Gate, funds funding.Contract, cfg Config, opts ...LedgerOption) (*Ledger, error) {
	if cfg.CustodyAccount.Zero() || cfg.SettlementAccount.Zero() {
		return nil, fmt.Errorf("custody and settlement accounts: %w", ErrNullAccount)
	}
	if err := money.CheckRate(cfg.CashbackRate); err != nil {
		return nil, err
	}

	l := &Ledger{
		gate:         gate,
		funds:        funds,
		custody:      cfg.CustodyAccount,
		settlement:   cfg.SettlementAccount,
		cashbackRate: cfg.CashbackRate,
		payments:     make(map[PaymentID]Payment),
		nextTransferID: func() ([]byte, error) {
			id, err := uuidv7.New()
			if err != nil {
				return nil, err
			}
			return id[:], nil
		},
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// MakePaymentRequest carries the parameters of a payment creation.
type MakePaymentRequest struct {
	PaymentID   PaymentID
	Payer       Account
	BaseAmount  uint64
	ExtraAmount uint64

	// Sponsor optionally subsidizes the payment up to SubsidyLimit.
	Sponsor      Account
	SubsidyLimit uint64

	// CashbackRate overrides the ledger's default rate when non-nil.
	CashbackRate *uint16

	// ConfirmAmount, when non-zero, additionally runs the confirmation step
	// inline after the payment is created.
	ConfirmAmount uint64
}

// MakePayment creates a payment and collects its sum from the payer and, for
// the subsidized part, from the sponsor. The ID must not address an active or
// reversed payment; a revoked ID is reusable as if it were new.
func (l *Ledger) MakePayment(ctx context.Context, caller Account, req MakePaymentRequest) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.MakePayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpMakePayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	if req.Payer.Zero() {
		return otelutil.RecordError(span, fmt.Errorf("payer: %w", ErrNullAccount))
	}
	if req.Sponsor.Zero() && req.SubsidyLimit > 0 {
		return otelutil.RecordError(span, fmt.Errorf("subsidy limit without sponsor: %w", ErrNullAccount))
	}
	if req.BaseAmount > math.MaxUint64-req.ExtraAmount {
		return otelutil.RecordError(span, AmountBoundError{
			PaymentID: req.PaymentID,
			Amount:    req.ExtraAmount,
			Bound:     math.MaxUint64 - req.BaseAmount,
		})
	}

	rate := l.cashbackRate
	if req.CashbackRate != nil {
		if err := money.CheckRate(*req.CashbackRate); err != nil {
			return otelutil.RecordError(span, err)
		}
		rate = *req.CashbackRate
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, []PaymentID{req.PaymentID}, func(ctx context.Context, tx funding.Tx) error {
		old := l.payments[req.PaymentID]
		switch old.Status {
		case StatusActive:
			return ErrPaymentAlreadyExists
		case StatusReversed:
			return ErrPaymentReversed
		}

		payment := Payment{
			Status:       StatusActive,
			Payer:        req.Payer,
			CashbackRate: rate,
			Sponsor:      req.Sponsor,
			SubsidyLimit: req.SubsidyLimit,
			BaseAmount:   req.BaseAmount,
			ExtraAmount:  req.ExtraAmount,
		}

		if err := tx.Transfer(ctx, payment.Payer, l.custody, payment.PayerSumAmount()); err != nil {
			return fmt.Errorf("failed to collect payer amount: %w", err)
		}
		if payment.Sponsored() {
			if err := tx.Transfer(ctx, payment.Sponsor, l.custody, payment.SponsorSumAmount()); err != nil {
				return fmt.Errorf("failed to collect sponsor amount: %w", err)
			}
		}

		l.payments[req.PaymentID] = payment
		l.stats.TotalUnconfirmedRemainder += payment.SumAmount()

		slog.InfoContext(ctx, "payment made",
			"payment_id", req.PaymentID,
			"payer", payment.Payer,
			"base_amount", payment.BaseAmount,
			"extra_amount", payment.ExtraAmount,
			"sponsor", payment.Sponsor,
			"subsidy_limit", payment.SubsidyLimit,
		)

		if req.ConfirmAmount > 0 {
			if err := l.confirmLocked(ctx, tx, req.PaymentID, req.ConfirmAmount); err != nil {
				return err
			}
		}

		return l.dispatch(ctx, AfterPaymentMade, req.PaymentID, old, l.payments[req.PaymentID])
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// UpdatePayment changes the base and extra amounts of an active payment,
// collecting or returning the difference. If the new remainder no longer
// covers the confirmed amount, the confirmation is partially undone and the
// excess pulled back from the settlement account.
func (l *Ledger) UpdatePayment(ctx context.Context, caller Account, id PaymentID, newBase, newExtra uint64) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.UpdatePayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpUpdatePayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, []PaymentID{id}, func(ctx context.Context, tx funding.Tx) error {
		old, err := l.activePayment(id)
		if err != nil {
			return err
		}

		if err := l.updateAmountsLocked(ctx, tx, id, newBase, newExtra); err != nil {
			return err
		}

		return l.dispatch(ctx, AfterPaymentUpdated, id, old, l.payments[id])
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// RevokePayment cancels an active payment, returning the unconfirmed
// remainder and any confirmed amount to payer and sponsor pro-rata by their
// remainder shares. The ID becomes reusable by a future make.
func (l *Ledger) RevokePayment(ctx context.Context, caller Account, id PaymentID) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.RevokePayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpRevokePayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	if err := l.cancelPayment(ctx, id, StatusRevoked); err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// ReversePayment cancels an active payment like RevokePayment but puts the ID
// into its terminal state: it can never be used again.
func (l *Ledger) ReversePayment(ctx context.Context, caller Account, id PaymentID) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.ReversePayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpReversePayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	if err := l.cancelPayment(ctx, id, StatusReversed); err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// ConfirmPayment moves amount of the payment's unconfirmed remainder from
// custody to the settlement account.
func (l *Ledger) ConfirmPayment(ctx context.Context, caller Account, id PaymentID, amount uint64) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.ConfirmPayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpConfirmPayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, []PaymentID{id}, func(ctx context.Context, tx funding.Tx) error {
		return l.confirmLocked(ctx, tx, id, amount)
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// PaymentConfirmation is one entry of a batch confirmation.
type PaymentConfirmation struct {
	PaymentID PaymentID
	Amount    uint64
}

// ConfirmPayments confirms a batch of payments in one commit unit: either
// every confirmation applies or none do.
func (l *Ledger) ConfirmPayments(ctx context.Context, caller Account, confirmations []PaymentConfirmation) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.ConfirmPayments")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpConfirmPayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	ids := make([]PaymentID, 0, len(confirmations))
	for _, confirmation := range confirmations {
		ids = append(ids, confirmation.PaymentID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, ids, func(ctx context.Context, tx funding.Tx) error {
		for _, confirmation := range confirmations {
			if err := l.confirmLocked(ctx, tx, confirmation.PaymentID, confirmation.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// UpdateLazyAndConfirmPayment runs the update step only when the new amounts
// differ from the current ones, then confirms the given amount. Both steps
// share one commit unit.
func (l *Ledger) UpdateLazyAndConfirmPayment(ctx context.Context, caller Account, id PaymentID, newBase, newExtra, confirmAmount uint64) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.UpdateLazyAndConfirmPayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpUpdatePayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.gate.Authorize(ctx, caller, OpConfirmPayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, []PaymentID{id}, func(ctx context.Context, tx funding.Tx) error {
		old, err := l.activePayment(id)
		if err != nil {
			return err
		}

		changed := old.BaseAmount != newBase || old.ExtraAmount != newExtra
		if changed {
			if err := l.updateAmountsLocked(ctx, tx, id, newBase, newExtra); err != nil {
				return err
			}
		}

		if confirmAmount > 0 {
			if err := l.confirmLocked(ctx, tx, id, confirmAmount); err != nil {
				return err
			}
		}

		// Dispatch last, like every other operation: a failing confirmation
		// must abort before any subscriber acted on the update.
		if changed {
			return l.dispatch(ctx, AfterPaymentUpdated, id, old, l.payments[id])
		}
		return nil
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// RefundPayment increases the payment's cumulative refund and returns the
// payer and sponsor shares, pulling confirmed funds back from the settlement
// account when custody no longer covers them.
func (l *Ledger) RefundPayment(ctx context.Context, caller Account, id PaymentID, refundingAmount uint64) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.RefundPayment")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpRefundPayment); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, []PaymentID{id}, func(ctx context.Context, tx funding.Tx) error {
		old, err := l.activePayment(id)
		if err != nil {
			return err
		}

		if refundingAmount > old.CommonRemainder() {
			return AmountBoundError{
				PaymentID: id,
				Amount:    refundingAmount,
				Bound:     old.CommonRemainder(),
			}
		}

		updated := old
		updated.RefundAmount += refundingAmount

		if err := l.pullConfirmedExcess(ctx, tx, id, &updated); err != nil {
			return err
		}

		payerShare := updated.PayerRefund() - old.PayerRefund()
		if err := tx.Transfer(ctx, l.custody, updated.Payer, payerShare); err != nil {
			return fmt.Errorf("failed to refund payer: %w", err)
		}
		sponsorShare := updated.SponsorRefund() - old.SponsorRefund()
		if updated.Sponsored() {
			if err := tx.Transfer(ctx, l.custody, updated.Sponsor, sponsorShare); err != nil {
				return fmt.Errorf("failed to refund sponsor: %w", err)
			}
		}

		l.stats.TotalUnconfirmedRemainder -= old.UnconfirmedRemainder()
		l.stats.TotalUnconfirmedRemainder += updated.UnconfirmedRemainder()
		l.payments[id] = updated

		slog.InfoContext(ctx, "payment refunded",
			"payment_id", id,
			"refunding_amount", refundingAmount,
			"payer_share", payerShare,
			"sponsor_share", sponsorShare,
		)

		return l.dispatch(ctx, AfterPaymentUpdated, id, old, updated)
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// RefundAccount moves amount from the settlement account directly to the
// given account. No payment record is touched.
func (l *Ledger) RefundAccount(ctx context.Context, caller, account Account, amount uint64) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.RefundAccount")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpRefundAccount); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}
	if account.Zero() {
		return otelutil.RecordError(span, fmt.Errorf("refund account: %w", ErrNullAccount))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.run(ctx, nil, func(ctx context.Context, tx funding.Tx) error {
		if err := tx.Transfer(ctx, l.settlement, account, amount); err != nil {
			return fmt.Errorf("failed to refund account: %w", err)
		}

		slog.InfoContext(ctx, "account refunded", "account", account, "amount", amount)
		return nil
	})
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// SetCashbackRate changes the default cashback rate applied to payments made
// from now on. Already made payments keep the rate they were made with.
func (l *Ledger) SetCashbackRate(ctx context.Context, caller Account, rate uint16) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.Ledger.SetCashbackRate")
	defer span.End()

	if err := l.gate.Authorize(ctx, caller, OpSetCashbackRate); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := l.guard(ctx); err != nil {
		return otelutil.RecordError(span, err)
	}
	if err := money.CheckRate(rate); err != nil {
		return otelutil.RecordError(span, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if rate == l.cashbackRate {
		return otelutil.RecordError(span, ErrUnchangedValue)
	}

	old := l.cashbackRate
	l.cashbackRate = rate
	slog.InfoContext(ctx, "cashback rate changed", "old_rate", old, "new_rate", rate)
	return nil
}

// PaymentDetails is a payment snapshot extended with the cumulative cashback
// granted against it, mirrored from the cashback source when one is attached.
type PaymentDetails struct {
	Payment
	CashbackAmount uint64
}

// GetPayment returns the payment addressed by the ID.
func (l *Ledger) GetPayment(id PaymentID) (PaymentDetails, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	payment, ok := l.payments[id]
	if !ok {
		return PaymentDetails{}, ErrPaymentNotFound
	}

	details := PaymentDetails{Payment: payment}
	if l.cashback != nil {
		details.CashbackAmount = l.cashback.GrantedCashback(id)
	}
	return details, nil
}

// Statistics returns the aggregate payment statistics.
func (l *Ledger) Statistics() PaymentStatistics {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.stats
}

// CashbackRate returns the current default cashback rate.
func (l *Ledger) CashbackRate() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.cashbackRate
}

// run executes fn inside one funds mover transaction with the given payment
// records and the statistics backed up. Any failure, including the final
// commit, restores the backed up state so an aborted operation leaves no
// trace. The transaction is handed to hook subscribers through the context.
func (l *Ledger) run(ctx context.Context, ids []PaymentID, fn func(ctx context.Context, tx funding.Tx) error) error {
	transferID, err := l.nextTransferID()
	if err != nil {
		return fmt.Errorf("failed to generate transfer ID: %w", err)
	}

	tx, err := l.funds.Begin(ctx, transferID)
	if err != nil {
		return fmt.Errorf("failed to begin funds transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	backup := make(map[PaymentID]Payment, len(ids))
	for _, id := range ids {
		backup[id] = l.payments[id]
	}
	statsBackup := l.stats

	restore := func() {
		for id, payment := range backup {
			if payment.Status == StatusNonexistent {
				delete(l.payments, id)
				continue
			}
			l.payments[id] = payment
		}
		l.stats = statsBackup
	}

	ctx = funding.NewContext(ctx, tx)

	if err := fn(ctx, tx); err != nil {
		restore()
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		restore()
		return fmt.Errorf("failed to commit funds transaction: %w", err)
	}
	return nil
}

// guard rejects mutating calls made from inside a hook dispatch. Subscribers
// run within an operation's commit unit and its funds transaction rides the
// context handed to them; a call carrying one would deadlock on the ledger
// lock, so it fails up front instead.
func (l *Ledger) guard(ctx context.Context) error {
	if _, ok := funding.TxFromContext(ctx); ok {
		return ErrReentrantCall
	}
	return nil
}

// activePayment returns the payment if it is active and the precondition
// error for its status otherwise.
func (l *Ledger) activePayment(id PaymentID) (Payment, error) {
	payment := l.payments[id]
	switch payment.Status {
	case StatusActive:
		return payment, nil
	case StatusNonexistent:
		return Payment{}, ErrPaymentNotFound
	case StatusReversed:
		return Payment{}, ErrPaymentReversed
	default:
		return Payment{}, PaymentStatusError{PaymentID: id, Status: payment.Status}
	}
}

// updateAmountsLocked applies new base and extra amounts to an active
// payment, moving the remainder difference between payer/sponsor and custody
// and partially unconfirming when the new remainder is smaller than the
// confirmed amount. The caller dispatches the hook.
func (l *Ledger) updateAmountsLocked(ctx context.Context, tx funding.Tx, id PaymentID, newBase, newExtra uint64) error {
	old, err := l.activePayment(id)
	if err != nil {
		return err
	}

	if newBase > math.MaxUint64-newExtra {
		return AmountBoundError{PaymentID: id, Amount: newExtra, Bound: math.MaxUint64 - newBase}
	}

	updated := old
	updated.BaseAmount = newBase
	updated.ExtraAmount = newExtra

	if updated.SumAmount() < updated.RefundAmount {
		return AmountBoundError{
			PaymentID: id,
			Amount:    updated.RefundAmount,
			Bound:     updated.SumAmount(),
		}
	}

	if err := l.pullConfirmedExcess(ctx, tx, id, &updated); err != nil {
		return err
	}

	if err := l.moveRemainderDelta(ctx, tx, old.PayerRemainder(), updated.PayerRemainder(), updated.Payer); err != nil {
		return err
	}
	if updated.Sponsored() {
		if err := l.moveRemainderDelta(ctx, tx, old.SponsorRemainder(), updated.SponsorRemainder(), updated.Sponsor); err != nil {
			return err
		}
	}

	l.stats.TotalUnconfirmedRemainder -= old.UnconfirmedRemainder()
	l.stats.TotalUnconfirmedRemainder += updated.UnconfirmedRemainder()
	l.payments[id] = updated

	slog.InfoContext(ctx, "payment updated",
		"payment_id", id,
		"old_base_amount", old.BaseAmount,
		"old_extra_amount", old.ExtraAmount,
		"new_base_amount", newBase,
		"new_extra_amount", newExtra,
	)
	return nil
}

// moveRemainderDelta collects from or returns to the account so its covered
// remainder moves from oldRemainder to newRemainder.
func (l *Ledger) moveRemainderDelta(ctx context.Context, tx funding.Tx, oldRemainder, newRemainder uint64, account Account) error {
	switch {
	case newRemainder > oldRemainder:
		if err := tx.Transfer(ctx, account, l.custody, newRemainder-oldRemainder); err != nil {
			return fmt.Errorf("failed to collect amount difference: %w", err)
		}
	case oldRemainder > newRemainder:
		if err := tx.Transfer(ctx, l.custody, account, oldRemainder-newRemainder); err != nil {
			return fmt.Errorf("failed to return amount difference: %w", err)
		}
	}
	return nil
}

// pullConfirmedExcess partially unconfirms the payment when its remainder no
// longer covers the confirmed amount, pulling the excess back from the
// settlement account into custody.
func (l *Ledger) pullConfirmedExcess(ctx context.Context, tx funding.Tx, id PaymentID, updated *Payment) error {
	excess := money.SubOrZero(updated.ConfirmedAmount, updated.CommonRemainder())
	if excess == 0 {
		return nil
	}

	if err := tx.Transfer(ctx, l.settlement, l.custody, excess); err != nil {
		return fmt.Errorf("failed to pull back confirmed excess: %w", err)
	}
	updated.ConfirmedAmount -= excess

	slog.InfoContext(ctx, "payment confirmed amount changed",
		"payment_id", id,
		"old_confirmed_amount", updated.ConfirmedAmount+excess,
		"new_confirmed_amount", updated.ConfirmedAmount,
	)
	return nil
}

// confirmLocked moves amount of the payment's unconfirmed remainder from
// custody to the settlement account.
func (l *Ledger) confirmLocked(ctx context.Context, tx funding.Tx, id PaymentID, amount uint64) error {
	payment, err := l.activePayment(id)
	if err != nil {
		return err
	}

	if amount > payment.UnconfirmedRemainder() {
		return AmountBoundError{
			PaymentID: id,
			Amount:    amount,
			Bound:     payment.UnconfirmedRemainder(),
		}
	}

	if err := tx.Transfer(ctx, l.custody, l.settlement, amount); err != nil {
		return fmt.Errorf("failed to move confirmed amount: %w", err)
	}

	payment.ConfirmedAmount += amount
	l.payments[id] = payment
	l.stats.TotalUnconfirmedRemainder -= amount

	slog.InfoContext(ctx, "payment confirmed",
		"payment_id", id,
		"amount", amount,
		"confirmed_amount", payment.ConfirmedAmount,
	)
	return nil
}

// cancelPayment implements revocation and reversal: both return every
// remaining fund to payer and sponsor and zero the record's amounts, they
// differ only in the final status.
func (l *Ledger) cancelPayment(ctx context.Context, id PaymentID, status PaymentStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.run(ctx, []PaymentID{id}, func(ctx context.Context, tx funding.Tx) error {
		old, err := l.activePayment(id)
		if err != nil {
			return err
		}

		if old.ConfirmedAmount > 0 {
			if err := tx.Transfer(ctx, l.settlement, l.custody, old.ConfirmedAmount); err != nil {
				return fmt.Errorf("failed to pull back confirmed amount: %w", err)
			}
		}
		if err := tx.Transfer(ctx, l.custody, old.Payer, old.PayerRemainder()); err != nil {
			return fmt.Errorf("failed to return payer remainder: %w", err)
		}
		if old.Sponsored() {
			if err := tx.Transfer(ctx, l.custody, old.Sponsor, old.SponsorRemainder()); err != nil {
				return fmt.Errorf("failed to return sponsor remainder: %w", err)
			}
		}

		updated := Payment{
			Status:       status,
			Payer:        old.Payer,
			CashbackRate: old.CashbackRate,
			Sponsor:      old.Sponsor,
		}

		l.stats.TotalUnconfirmedRemainder -= old.UnconfirmedRemainder()
		l.payments[id] = updated

		slog.InfoContext(ctx, "payment canceled",
			"payment_id", id,
			"status", status,
			"payer_returned", old.PayerRemainder(),
			"sponsor_returned", old.SponsorRemainder(),
		)

		return l.dispatch(ctx, AfterPaymentCanceled, id, old, updated)
	})
}

// dispatch forwards a lifecycle notification when a dispatcher is attached.
func (l *Ledger) dispatch(ctx context.Context, point HookPoint, id PaymentID, oldPayment, newPayment Payment) error {
	if l.hooks == nil {
		return nil
	}
	return l.hooks.Dispatch(ctx, point, id, oldPayment, newPayment)
}
