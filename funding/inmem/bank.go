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

// Package inmem provides an in-memory funds mover.
package inmem

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwalk/cardledger/funding"
)

// Bank is an in-memory funds mover. Transactions stage transfers against a
// view of the balances and apply them on Commit under the bank lock.
type Bank struct {
	mu         *sync.Mutex
	balances   map[funding.Account]uint64
	allowances map[allowanceKey]uint64
}

type allowanceKey struct {
	owner   funding.Account
	spender funding.Account
}

// NewBank returns an in-memory bank seeded with the given balances.
func NewBank(balances map[funding.Account]uint64) *Bank {
	b := &Bank{
		mu:         &sync.Mutex{},
		balances:   make(map[funding.Account]uint64, len(balances)),
		allowances: make(map[allowanceKey]uint64),
	}
	for account, balance := range balances {
		b.balances[account] = balance
	}
	return b
}

// Mint credits an account outside of any transaction. Intended for test and
// simulation setup.
func (b *Bank) Mint(account funding.Account, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

// TotalSupply returns the sum of all balances. Conservation checks in tests
// compare it before and after a ledger operation.
func (b *Bank) TotalSupply() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total uint64
	for _, balance := range b.balances {
		total += balance
	}
	return total
}

func (b *Bank) Begin(ctx context.Context, transferID []byte) (funding.Tx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return &bankTx{
		bank:       b,
		balances:   make(map[funding.Account]uint64),
		allowances: make(map[allowanceKey]uint64),
	}, nil
}

func (b *Bank) Approve(ctx context.Context, owner, spender funding.Account, amount uint64) error {
	if owner.Zero() || spender.Zero() {
		return funding.InputError{Err: errors.New("null account in approval")}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := allowanceKey{owner: owner, spender: spender}
	if amount == 0 {
		delete(b.allowances, key)
		return nil
	}
	b.allowances[key] = amount
	return nil
}

func (b *Bank) Allowance(ctx context.Context, owner, spender funding.Account) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.allowances[allowanceKey{owner: owner, spender: spender}], nil
}

func (b *Bank) Balance(ctx context.Context, account funding.Account) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.balances[account], nil
}

// bankTx stages balance and allowance changes. Only accounts touched by the
// transaction are copied into the staging maps; Commit writes them back.
type bankTx struct {
	bank       *Bank
	balances   map[funding.Account]uint64
	allowances map[allowanceKey]uint64
	done       bool
}

var errTxDone = errors.New("transaction has finished")

func (tx *bankTx) stagedBalance(account funding.Account) uint64 {
	if balance, ok := tx.balances[account]; ok {
		return balance
	}
	return tx.bank.balances[account]
}

func (tx *bankTx) stagedAllowance(key allowanceKey) uint64 {
	if allowance, ok := tx.allowances[key]; ok {
		return allowance
	}
	return tx.bank.allowances[key]
}

func (tx *bankTx) Transfer(ctx context.Context, from, to funding.Account, amount uint64) error {
	tx.bank.mu.Lock()
	defer tx.bank.mu.Unlock()

	return tx.transferLocked(from, to, amount)
}

func (tx *bankTx) TransferFrom(ctx context.Context, spender, from, to funding.Account, amount uint64) error {
	tx.bank.mu.Lock()
	defer tx.bank.mu.Unlock()

	if spender.Zero() {
		return funding.InputError{Err: errors.New("null spender account")}
	}

	key := allowanceKey{owner: from, spender: spender}
	allowance := tx.stagedAllowance(key)
	if allowance < amount {
		return funding.InsufficientAllowanceError{
			Owner:     from,
			Spender:   spender,
			Allowance: allowance,
			Amount:    amount,
		}
	}

	err := tx.transferLocked(from, to, amount)
	if err != nil {
		return err
	}

	tx.allowances[key] = allowance - amount
	return nil
}

func (tx *bankTx) transferLocked(from, to funding.Account, amount uint64) error {
	if tx.done {
		return errTxDone
	}
	if from.Zero() || to.Zero() {
		return funding.InputError{Err: errors.New("null account in transfer")}
	}
	if amount == 0 {
		return nil
	}

	fromBalance := tx.stagedBalance(from)
	if fromBalance < amount {
		return funding.InsufficientBalanceError{
			Account: from,
			Balance: fromBalance,
			Amount:  amount,
		}
	}

	tx.balances[from] = fromBalance - amount
	tx.balances[to] = tx.stagedBalance(to) + amount
	return nil
}

func (tx *bankTx) Commit(ctx context.Context) error {
	tx.bank.mu.Lock()
	defer tx.bank.mu.Unlock()

	if tx.done {
		return errTxDone
	}
	tx.done = true

	for account, balance := range tx.balances {
		tx.bank.balances[account] = balance
	}
	for key, allowance := range tx.allowances {
		if allowance == 0 {
			delete(tx.bank.allowances, key)
			continue
		}
		tx.bank.allowances[key] = allowance
	}
	return nil
}

func (tx *bankTx) Rollback(ctx context.Context) error {
	tx.bank.mu.Lock()
	defer tx.bank.mu.Unlock()

	// Rollback after Commit is a no-op so callers can defer it.
	tx.done = true
	tx.balances = nil
	tx.allowances = nil
	return nil
}
