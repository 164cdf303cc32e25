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
	"errors"
	"fmt"
)

var (
	// ErrPaymentNotFound indicates the payment ID does not address an active
	// payment.
	ErrPaymentNotFound = errors.New("payment does not exist")

	// ErrPaymentAlreadyExists indicates a make was attempted for an ID that is
	// currently active.
	ErrPaymentAlreadyExists = errors.New("payment already exists")

	// ErrPaymentReversed indicates the payment reached its terminal reversed
	// state; the ID can never be used again.
	ErrPaymentReversed = errors.New("payment is reversed")

	// ErrNullAccount indicates the null account where a real account is
	// required.
	ErrNullAccount = errors.New("account is the null account")

	// ErrUnchangedValue indicates a configuration update to the value already
	// set. No-op updates are rejected.
	ErrUnchangedValue = errors.New("value is already set")

	// ErrReentrantCall indicates a hook subscriber called back into the ledger
	// from within a dispatch.
	ErrReentrantCall = errors.New("re-entrant ledger call from a hook subscriber")
)

// PaymentStatusError indicates an operation found the payment in a status it
// cannot act on.
type PaymentStatusError struct {
	PaymentID PaymentID
	Status    PaymentStatus
}

func (e PaymentStatusError) Error() string {
	return fmt.Sprintf("payment %s has inappropriate status %s", e.PaymentID, e.Status)
}

// AmountBoundError indicates an amount that would break a ledger invariant:
// a refund above the payment sum or a confirmation above the remainder.
// Amounts are never silently clamped.
type AmountBoundError struct {
	PaymentID PaymentID
	Amount    uint64
	Bound     uint64
}

func (e AmountBoundError) Error() string {
	return fmt.Sprintf("amount %d exceeds bound %d for payment %s", e.Amount, e.Bound, e.PaymentID)
}