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

// Package funding defines the contract for the external funds mover that
// performs every token movement on behalf of the payment ledger and the
// cashback engine.
package funding

import (
	"context"
	"fmt"
)

// Account identifies a token account held by the funds mover. The empty
// string is the null account and is never a valid transfer endpoint.
type Account string

// Zero reports whether the account is the null account.
func (a Account) Zero() bool {
	return a == ""
}

// Contract is the contract a funds mover needs to fulfil to be usable by the
// ledger.
//
// Implementors can verify their implementations work by running the tests in
// the testcontract package.
//
// Note: the transferID on [Contract.Begin] is an idempotency key for the whole
// transaction. In-memory implementations may ignore it; implementations backed
// by an external system should use it to make a replayed transaction a no-op.
type Contract interface {
	// Begin starts a transaction grouping a set of transfers so they commit or
	// roll back together.
	//
	// - Must leave balances untouched until Commit.
	// - Must support Rollback after Commit as a no-op, so callers can defer it.
	Begin(ctx context.Context, transferID []byte) (Tx, error)

	// Approve sets the allowance the spender may move out of the owner's
	// account via TransferFrom. Setting zero revokes the allowance.
	//
	// - Must return an [InputError] when the owner or spender is the null account.
	Approve(ctx context.Context, owner, spender Account, amount uint64) error

	// Allowance returns the remaining allowance from owner to spender.
	//
	// - Must return zero for pairs that were never approved.
	Allowance(ctx context.Context, owner, spender Account) (uint64, error)

	// Balance returns the balance of an account.
	//
	// - Must return a zero balance for non existing accounts.
	Balance(ctx context.Context, account Account) (uint64, error)
}

// Tx is a funds mover transaction. A failed transfer poisons the transaction:
// the caller must roll back and abort its surrounding operation.
type Tx interface {
	// Transfer moves amount from one account to another.
	//
	// - Must return an [InputError] when from or to is the null account.
	// - Must return an [InsufficientBalanceError] when the source account does
	//   not hold amount, counting earlier transfers in the same transaction.
	// - Must treat a zero amount as a no-op.
	Transfer(ctx context.Context, from, to Account, amount uint64) error

	// TransferFrom moves amount out of the from account on behalf of spender,
	// consuming the spender's allowance.
	//
	// - Must return an [InsufficientAllowanceError] when the allowance does not
	//   cover amount.
	// - Otherwise behaves like Transfer.
	TransferFrom(ctx context.Context, spender, from, to Account, amount uint64) error

	// Commit applies all transfers atomically.
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Safe to call after Commit.
	Rollback(ctx context.Context) error
}

// InsufficientBalanceError indicates a transfer failed because the source
// account does not hold the requested amount.
type InsufficientBalanceError struct {
	// Account is the source account.
	Account Account
	// Balance is the balance at the time of the error.
	Balance uint64
	// Amount is the amount the transfer asked for.
	Amount uint64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance %d for transfer of %d", e.Balance, e.Amount)
}

// InsufficientAllowanceError indicates a TransferFrom failed because the
// spender's allowance does not cover the requested amount.
type InsufficientAllowanceError struct {
	Owner     Account
	Spender   Account
	Allowance uint64
	Amount    uint64
}

func (e InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("insufficient allowance %d for transfer of %d", e.Allowance, e.Amount)
}

// InputError indicates the provided input was invalid.
type InputError struct {
	Err error
}

func (e InputError) Error() string {
	return e.Err.Error()
}

func (e InputError) Unwrap() error {
	return e.Err
}
