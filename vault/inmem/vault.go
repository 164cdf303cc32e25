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

// Package inmem provides an in-memory cashback balance store.
package inmem

import (
	"context"
	"sync"

	"github.com/cloudwalk/cardledger/funding"
	"github.com/cloudwalk/cardledger/vault"
)

// Vault is an in-memory cashback balance store. Claimable balances live in a
// map; token funds live in the vault's account at the funds mover and are
// paid out through it on claim.
type Vault struct {
	mu        *sync.Mutex
	funds     funding.Contract
	account   funding.Account
	claimable map[funding.Account]uint64
}

// NewVault returns an in-memory vault holding its token funds in the given
// funds mover account.
func NewVault(funds funding.Contract, account funding.Account) *Vault {
	return &Vault{
		mu:        &sync.Mutex{},
		funds:     funds,
		account:   account,
		claimable: make(map[funding.Account]uint64),
	}
}

func (v *Vault) TokenAccount() funding.Account {
	return v.account
}

func (v *Vault) Grant(ctx context.Context, account funding.Account, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.claimable[account] += amount
	return nil
}

func (v *Vault) Revoke(ctx context.Context, account funding.Account, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	claimable := v.claimable[account]
	if claimable < amount {
		return vault.InsufficientClaimableError{
			Account:   account,
			Claimable: claimable,
			Amount:    amount,
		}
	}

	v.claimable[account] = claimable - amount
	return nil
}

func (v *Vault) Claim(ctx context.Context, account funding.Account, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.claimLocked(ctx, account, amount)
}

func (v *Vault) ClaimAll(ctx context.Context, account funding.Account) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	amount := v.claimable[account]
	if amount == 0 {
		return 0, nil
	}

	err := v.claimLocked(ctx, account, amount)
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (v *Vault) claimLocked(ctx context.Context, account funding.Account, amount uint64) error {
	claimable := v.claimable[account]
	if claimable < amount {
		return vault.InsufficientClaimableError{
			Account:   account,
			Claimable: claimable,
			Amount:    amount,
		}
	}

	tx, err := v.funds.Begin(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.Transfer(ctx, v.account, account, amount)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}

	v.claimable[account] = claimable - amount
	return nil
}

func (v *Vault) BalanceOf(ctx context.Context, account funding.Account) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.claimable[account], nil
}
