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

// Package vault defines the contract for the cashback balance store used when
// cashback runs in claimable mode: granted cashback is credited to a claimable
// balance instead of being paid out immediately.
package vault

import (
	"context"
	"fmt"

	"github.com/cloudwalk/cardledger/funding"
)

// Contract is the contract a cashback balance store needs to fulfil.
//
// The store only does balance bookkeeping; the cap logic stays with the
// cashback engine. Implementors can verify their implementations work by
// running the tests in the testcontract package.
type Contract interface {
	// Grant credits amount to the account's claimable balance. The token funds
	// backing the grant are expected to already sit in the vault's token
	// account when Grant is called.
	Grant(ctx context.Context, account funding.Account, amount uint64) error

	// Revoke debits amount from the account's claimable balance.
	//
	// - Must return an [InsufficientClaimableError] when amount exceeds the
	//   claimable balance. Revoking granted funds never over-reclaims.
	Revoke(ctx context.Context, account funding.Account, amount uint64) error

	// Claim pays out amount of the account's claimable balance to the account.
	//
	// - Must return an [InsufficientClaimableError] when amount exceeds the
	//   claimable balance.
	Claim(ctx context.Context, account funding.Account, amount uint64) error

	// ClaimAll pays out the full claimable balance and returns the amount paid.
	//
	// - Must treat an empty balance as a successful zero claim.
	ClaimAll(ctx context.Context, account funding.Account) (uint64, error)

	// BalanceOf returns the claimable balance of an account.
	//
	// - Must return a zero balance for accounts that were never granted to.
	BalanceOf(ctx context.Context, account funding.Account) (uint64, error)

	// TokenAccount returns the funds mover account the vault keeps its token
	// funds in. The cashback engine moves treasury funds to and from it when
	// granting and revoking.
	TokenAccount() funding.Account
}

// InsufficientClaimableError indicates a revoke or claim asked for more than
// the account's claimable balance.
type InsufficientClaimableError struct {
	Account   funding.Account
	Claimable uint64
	Amount    uint64
}

func (e InsufficientClaimableError) Error() string {
	return fmt.Sprintf("insufficient claimable balance %d for %d", e.Claimable, e.Amount)
}
