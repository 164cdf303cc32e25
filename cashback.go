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
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cloudwalk/cardledger/authz"
	"github.com/cloudwalk/cardledger/funding"
	"github.com/cloudwalk/cardledger/money"
	"github.com/cloudwalk/cardledger/otel/otelutil"
	"github.com/cloudwalk/cardledger/uuidv7"
	"github.com/cloudwalk/cardledger/vault"
)

// CashbackStatus is the outcome of the last cashback grant attempt for a
// payment.
type CashbackStatus uint8

const (
	// CashbackNone means no grant was ever attempted for the payment.
	CashbackNone CashbackStatus = iota
	// CashbackPending is the transient status while a grant is in flight.
	CashbackPending
	// CashbackSent means the last requested grant was paid in full.
	CashbackSent
	// CashbackPartial means the rolling cap truncated the last grant.
	CashbackPartial
	// CashbackCapped means the rolling cap swallowed the last grant entirely.
	CashbackCapped
	// CashbackFailed means a funds leg failed. The payment's cashback is stuck
	// until a manual CorrectCashbackAmount intervention.
	CashbackFailed
)

func (s CashbackStatus) String() string {
	switch s {
	case CashbackNone:
		return "NONE"
	case CashbackPending:
		return "PENDING"
	case CashbackSent:
		return "SENT"
	case CashbackPartial:
		return "PARTIAL"
	case CashbackCapped:
		return "CAPPED"
	case CashbackFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// PaymentCashback is the engine's per-payment record: the account cashback is
// paid to, the net amount granted so far and the outcome of the last attempt.
type PaymentCashback struct {
	Status  CashbackStatus
	Account Account
	Amount  uint64
}

// AccountCashbackWindow tracks an account against the rolling cashback cap.
// CapPeriodStartAmount is what counts against the cap in the current window;
// TotalAmount is the lifetime total and never decreases.
type AccountCashbackWindow struct {
	TotalAmount          uint64
	CapPeriodStartAmount uint64
	CapPeriodStart       time.Time
}

// CashbackEngine grants cashback for the base amount of payments and reclaims
// it as payments shrink or are canceled. It subscribes to all three ledger
// hook points and derives a delta from the owed amounts of the two snapshots
// it is handed.
//
// Grants come out of the treasury account, either straight to the payer or,
// in claimable mode, into a vault the payer claims from later. Positive
// deltas are capped by a per-account rolling window; reclaims are bounded by
// what was actually granted for the payment.
type CashbackEngine struct {
	mu       sync.Mutex
	gate     authz.Gate
	funds    funding.Contract
	treasury Account
	vault    vault.Contract

	windowCap      uint64
	windowDuration time.Duration
	now            func() time.Time
	hookID         HookID

	payments map[PaymentID]*PaymentCashback
	windows  map[Account]*AccountCashbackWindow
}

// NewCashbackEngine returns an engine paying grants out of the configured
// treasury. It starts in direct mode; attach a vault with [WithVault] or
// [CashbackEngine.SetCashbackVault] to switch to claimable mode.
func NewCashbackEngine(gate authz.Gate, funds funding.Contract, cfg Config, opts ...EngineOption) (*CashbackEngine, error) {
	if cfg.CashbackTreasury.Zero() {
		return nil, fmt.Errorf("cashback treasury: %w", ErrNullAccount)
	}
	if cfg.CashbackWindowDuration <= 0 {
		return nil, fmt.Errorf("cashback window duration must be positive")
	}

	e := &CashbackEngine{
		gate:           gate,
		funds:          funds,
		treasury:       cfg.CashbackTreasury,
		windowCap:      cfg.CashbackWindowCap,
		windowDuration: cfg.CashbackWindowDuration,
		now:            time.Now,
		hookID:         sha256.Sum256([]byte("cashbackEngine:" + string(cfg.CashbackTreasury))),
		payments:       make(map[PaymentID]*PaymentCashback),
		windows:        make(map[Account]*AccountCashbackWindow),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// HookID implements [Subscriber].
func (e *CashbackEngine) HookID() HookID {
	return e.hookID
}

// Supports implements [Subscriber]. The engine listens on every point.
func (e *CashbackEngine) Supports(HookPoint) bool {
	return true
}

// AfterPaymentMade implements [Subscriber].
func (e *CashbackEngine) AfterPaymentMade(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error {
	return e.applyDelta(ctx, id, oldPayment, newPayment)
}

// AfterPaymentUpdated implements [Subscriber].
func (e *CashbackEngine) AfterPaymentUpdated(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error {
	return e.applyDelta(ctx, id, oldPayment, newPayment)
}

// AfterPaymentCanceled implements [Subscriber].
func (e *CashbackEngine) AfterPaymentCanceled(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error {
	return e.applyDelta(ctx, id, oldPayment, newPayment)
}

// applyDelta computes the owed difference between the two snapshots and
// grants or reclaims it. A payment stuck in the failed status is skipped so
// the ledger side of the operation can still go through; the drift stays
// until a manual correction.
func (e *CashbackEngine) applyDelta(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	oldOwed, newOwed := oldPayment.CashbackOwed(), newPayment.CashbackOwed()
	if newOwed == oldOwed {
		return nil
	}

	record := e.recordLocked(id)
	if record.Status == CashbackFailed {
		slog.WarnContext(ctx, "cashback stuck, skipping delta",
			"payment_id", id,
			"old_owed", oldOwed,
			"new_owed", newOwed,
		)
		return nil
	}
	record.Account = newPayment.Payer

	if newOwed > oldOwed {
		return e.grantLocked(ctx, id, record, newOwed-oldOwed)
	}
	return e.reclaimLocked(ctx, id, record, oldOwed-newOwed)
}

// grantLocked pays out up to want from the treasury, truncated by the
// account's rolling window headroom.
func (e *CashbackEngine) grantLocked(ctx context.Context, id PaymentID, record *PaymentCashback, want uint64) error {
	record.Status = CashbackPending

	window := e.windowLocked(record.Account)
	now := e.now()
	if now.Sub(window.CapPeriodStart) > e.windowDuration {
		window.CapPeriodStart = now
		window.CapPeriodStartAmount = 0
	}

	headroom := money.SubOrZero(e.windowCap, window.CapPeriodStartAmount)
	granted := money.Min(want, headroom)

	if granted > 0 {
		err := e.withTx(ctx, func(ctx context.Context, tx funding.Tx) error {
			if e.vault == nil {
				return tx.Transfer(ctx, e.treasury, record.Account, granted)
			}
			// Claimable mode: the vault pulls the funds under its allowance,
			// then books them as claimable by the account.
			store := e.vault.TokenAccount()
			if err := tx.TransferFrom(ctx, store, e.treasury, store, granted); err != nil {
				return err
			}
			return e.vault.Grant(ctx, record.Account, granted)
		})
		if err != nil {
			record.Status = CashbackFailed
			return fmt.Errorf("failed to grant cashback: %w", err)
		}

		window.CapPeriodStartAmount += granted
		window.TotalAmount += granted
		record.Amount += granted
	}

	switch {
	case granted == want:
		record.Status = CashbackSent
	case granted == 0:
		record.Status = CashbackCapped
	default:
		record.Status = CashbackPartial
	}

	slog.InfoContext(ctx, "cashback granted",
		"payment_id", id,
		"account", record.Account,
		"wanted", want,
		"granted", granted,
		"status", record.Status,
	)
	return nil
}

// reclaimLocked pulls up to want back into the treasury, bounded by the net
// amount granted for the payment. The last grant status is left as is.
func (e *CashbackEngine) reclaimLocked(ctx context.Context, id PaymentID, record *PaymentCashback, want uint64) error {
	reclaimed := money.Min(want, record.Amount)
	if reclaimed == 0 {
		return nil
	}

	err := e.withTx(ctx, func(ctx context.Context, tx funding.Tx) error {
		if e.vault == nil {
			return tx.Transfer(ctx, record.Account, e.treasury, reclaimed)
		}
		claimable, err := e.vault.BalanceOf(ctx, record.Account)
		if err != nil {
			return err
		}
		fromVault := money.Min(reclaimed, claimable)
		// Anything already claimed is pulled straight from the account.
		if err := tx.Transfer(ctx, record.Account, e.treasury, reclaimed-fromVault); err != nil {
			return err
		}
		if fromVault > 0 {
			if err := tx.Transfer(ctx, e.vault.TokenAccount(), e.treasury, fromVault); err != nil {
				return err
			}
			// Revoke goes last: the staged transfers roll back with the
			// transaction, the claimable balance does not.
			if err := e.vault.Revoke(ctx, record.Account, fromVault); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		record.Status = CashbackFailed
		return fmt.Errorf("failed to reclaim cashback: %w", err)
	}

	record.Amount -= reclaimed
	window := e.windowLocked(record.Account)
	window.CapPeriodStartAmount = money.SubOrZero(window.CapPeriodStartAmount, reclaimed)

	slog.InfoContext(ctx, "cashback reclaimed",
		"payment_id", id,
		"account", record.Account,
		"wanted", want,
		"reclaimed", reclaimed,
	)
	return nil
}

// CorrectCashbackAmount manually adjusts the net granted cashback of a
// payment to newAmount, applying the implied delta through the regular grant
// and reclaim paths (the rolling cap still applies to increases, so the final
// amount can land below newAmount). It is the recovery path for payments
// stuck in the failed status.
func (e *CashbackEngine) CorrectCashbackAmount(ctx context.Context, caller Account, id PaymentID, newAmount uint64) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.CashbackEngine.CorrectCashbackAmount")
	defer span.End()

	if err := e.gate.Authorize(ctx, caller, OpCorrectCashback); err != nil {
		return otelutil.RecordError(span, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.payments[id]
	if !ok {
		return otelutil.RecordError(span, ErrPaymentNotFound)
	}

	slog.InfoContext(ctx, "correcting cashback amount",
		"payment_id", id,
		"old_amount", record.Amount,
		"new_amount", newAmount,
		"old_status", record.Status,
	)

	// Corrections are the way out of the failed status: clear it first so the
	// grant/reclaim paths run.
	if record.Status == CashbackFailed {
		record.Status = CashbackNone
	}

	var err error
	switch {
	case newAmount > record.Amount:
		err = e.grantLocked(ctx, id, record, newAmount-record.Amount)
	case newAmount < record.Amount:
		err = e.reclaimLocked(ctx, id, record, record.Amount-newAmount)
	}
	if err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

// SetCashbackTreasury changes the account grants are paid from. In claimable
// mode the vault's allowance moves along.
func (e *CashbackEngine) SetCashbackTreasury(ctx context.Context, caller, account Account) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.CashbackEngine.SetCashbackTreasury")
	defer span.End()

	if err := e.gate.Authorize(ctx, caller, OpConfigureCashback); err != nil {
		return otelutil.RecordError(span, err)
	}
	if account.Zero() {
		return otelutil.RecordError(span, fmt.Errorf("cashback treasury: %w", ErrNullAccount))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if account == e.treasury {
		return otelutil.RecordError(span, ErrUnchangedValue)
	}

	if e.vault != nil {
		store := e.vault.TokenAccount()
		if err := e.funds.Approve(ctx, e.treasury, store, 0); err != nil {
			return otelutil.RecordError(span, fmt.Errorf("failed to clear vault allowance: %w", err))
		}
		if err := e.funds.Approve(ctx, account, store, math.MaxUint64); err != nil {
			return otelutil.RecordError(span, fmt.Errorf("failed to move vault allowance: %w", err))
		}
	}

	old := e.treasury
	e.treasury = account
	slog.InfoContext(ctx, "cashback treasury changed", "old_treasury", old, "new_treasury", account)
	return nil
}

// SetCashbackVault switches the engine between direct and claimable mode.
// Passing nil detaches the current vault and returns to direct grants.
func (e *CashbackEngine) SetCashbackVault(ctx context.Context, caller Account, store vault.Contract) error {
	ctx, span := otelutil.Tracer.Start(ctx, "cardledger.CashbackEngine.SetCashbackVault")
	defer span.End()

	if err := e.gate.Authorize(ctx, caller, OpConfigureCashback); err != nil {
		return otelutil.RecordError(span, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.setVaultLocked(ctx, store); err != nil {
		return otelutil.RecordError(span, err)
	}
	return nil
}

func (e *CashbackEngine) setVault(store vault.Contract) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.setVaultLocked(context.Background(), store)
}

func (e *CashbackEngine) setVaultLocked(ctx context.Context, store vault.Contract) error {
	if store == nil && e.vault == nil {
		return ErrUnchangedValue
	}

	if e.vault != nil {
		if err := e.funds.Approve(ctx, e.treasury, e.vault.TokenAccount(), 0); err != nil {
			return fmt.Errorf("failed to clear vault allowance: %w", err)
		}
	}
	if store != nil {
		if err := e.funds.Approve(ctx, e.treasury, store.TokenAccount(), math.MaxUint64); err != nil {
			return fmt.Errorf("failed to grant vault allowance: %w", err)
		}
	}

	e.vault = store
	slog.InfoContext(ctx, "cashback vault changed", "claimable", store != nil)
	return nil
}

// GrantedCashback implements [CashbackSource]: the net amount granted for the
// payment so far.
func (e *CashbackEngine) GrantedCashback(id PaymentID) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.payments[id]
	if !ok {
		return 0
	}
	return record.Amount
}

// PaymentCashback returns the engine's record for the payment.
func (e *CashbackEngine) PaymentCashback(id PaymentID) (PaymentCashback, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.payments[id]
	if !ok {
		return PaymentCashback{}, false
	}
	return *record, true
}

// Window returns the account's rolling cap window state.
func (e *CashbackEngine) Window(account Account) (AccountCashbackWindow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	window, ok := e.windows[account]
	if !ok {
		return AccountCashbackWindow{}, false
	}
	return *window, true
}

// Treasury returns the account grants are currently paid from.
func (e *CashbackEngine) Treasury() Account {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.treasury
}

// ClaimableMode reports whether grants go through a vault.
func (e *CashbackEngine) ClaimableMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.vault != nil
}

func (e *CashbackEngine) recordLocked(id PaymentID) *PaymentCashback {
	record, ok := e.payments[id]
	if !ok {
		record = &PaymentCashback{}
		e.payments[id] = record
	}
	return record
}

func (e *CashbackEngine) windowLocked(account Account) *AccountCashbackWindow {
	window, ok := e.windows[account]
	if !ok {
		window = &AccountCashbackWindow{CapPeriodStart: e.now()}
		e.windows[account] = window
	}
	return window
}

// withTx runs fn inside the ledger operation's funds transaction when one is
// in the context, so the cashback legs commit or roll back together with the
// operation that triggered them. Otherwise it opens and commits its own.
func (e *CashbackEngine) withTx(ctx context.Context, fn func(ctx context.Context, tx funding.Tx) error) error {
	if tx, ok := funding.TxFromContext(ctx); ok {
		return fn(ctx, tx)
	}

	transferID, err := uuidv7.New()
	if err != nil {
		return fmt.Errorf("failed to generate transfer ID: %w", err)
	}
	tx, err := e.funds.Begin(ctx, transferID[:])
	if err != nil {
		return fmt.Errorf("failed to begin funds transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
