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

// Package cardledger records card payments on behalf of off-chain
// transactions, tracks the monetary sub-amounts of each payment, and
// distributes a capped cashback reward to the payer.
//
// The package holds three cooperating components:
//
//   - [Ledger] owns the per-payment records and the aggregate statistics and
//     drives all fund movement between payer, sponsor, custody and settlement.
//   - [HookDispatcher] fans out lifecycle notifications to registered
//     subscribers after a ledger transition commits.
//   - [CashbackEngine] subscribes to those notifications, computes cashback
//     deltas from payment snapshots, enforces a rolling per-account cap, and
//     moves cashback funds between the treasury and the payer (or a claimable
//     vault).
//
// Token movement, authorization and the claimable balance store are external
// collaborators, defined as contracts in the funding, authz and vault
// subpackages with in-memory reference implementations.
package cardledger

import (
	"encoding/hex"

	"github.com/cloudwalk/cardledger/funding"
)

// Account identifies a token account. The empty string is the null account.
type Account = funding.Account

// PaymentID uniquely addresses a payment. IDs are caller supplied and
// reusable only after a revocation, never after a reversal.
type PaymentID [32]byte

func (id PaymentID) String() string {
	return hex.EncodeToString(id[:])
}

// Operation names checked against the authorization gate before the
// operation's body runs.
const (
	OpMakePayment       = "makePayment"
	OpUpdatePayment     = "updatePayment"
	OpConfirmPayment    = "confirmPayment"
	OpRevokePayment     = "revokePayment"
	OpReversePayment    = "reversePayment"
	OpRefundPayment     = "refundPayment"
	OpRefundAccount     = "refundAccount"
	OpSetCashbackRate   = "setCashbackRate"
	OpConfigureCashback = "configureCashback"
	OpCorrectCashback   = "correctCashback"
)
