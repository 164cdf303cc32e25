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

// Package testcontract holds a reusable test suite verifying a funds mover
// implementation against the funding contract.
package testcontract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwalk/cardledger/funding"
)

// SetupFunc returns a funds mover pre-seeded with the provided balances.
type SetupFunc func(t *testing.T, balances map[funding.Account]uint64) (funding.Contract, error)

func TestFundsMoverContract(t *testing.T, setupFunc SetupFunc) {
	setup := func(t *testing.T, balances map[funding.Account]uint64) funding.Contract {
		t.Helper()

		funds, err := setupFunc(t, balances)
		require.NoError(t, err)

		return funds
	}

	t.Run("Transfers", func(t *testing.T) {
		RunTransferTests(t, setup)
	})

	t.Run("Transactions", func(t *testing.T) {
		RunTransactionTests(t, setup)
	})

	t.Run("Allowances", func(t *testing.T) {
		RunAllowanceTests(t, setup)
	})
}

type fullSetupFunc func(t *testing.T, balances map[funding.Account]uint64) funding.Contract

func RunTransferTests(t *testing.T, setup fullSetupFunc) {
	t.Run("ok, transfer and commit", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 100})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)

		err = tx.Transfer(t.Context(), "alice", "bob", 40)
		require.NoError(t, err)

		err = tx.Commit(t.Context())
		require.NoError(t, err)

		balance, err := funds.Balance(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(60), balance)

		balance, err = funds.Balance(t.Context(), "bob")
		require.NoError(t, err)
		require.Equal(t, uint64(40), balance)
	})

	t.Run("ok, zero amount is a no-op", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 100})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)

		err = tx.Transfer(t.Context(), "alice", "bob", 0)
		require.NoError(t, err)

		err = tx.Commit(t.Context())
		require.NoError(t, err)

		balance, err := funds.Balance(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(100), balance)
	})

	t.Run("ok, unknown account has a zero balance", func(t *testing.T) {
		funds := setup(t, nil)

		balance, err := funds.Balance(t.Context(), "nobody")
		require.NoError(t, err)
		require.Equal(t, uint64(0), balance)
	})

	t.Run("fail, insufficient balance", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 10})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)
		defer func() {
			require.NoError(t, tx.Rollback(t.Context()))
		}()

		err = tx.Transfer(t.Context(), "alice", "bob", 11)
		require.Error(t, err)

		balanceErr := funding.InsufficientBalanceError{}
		require.ErrorAs(t, err, &balanceErr)
		require.Equal(t, uint64(10), balanceErr.Balance)
	})

	t.Run("fail, insufficient balance counts earlier transfers", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 10})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)
		defer func() {
			require.NoError(t, tx.Rollback(t.Context()))
		}()

		err = tx.Transfer(t.Context(), "alice", "bob", 8)
		require.NoError(t, err)

		err = tx.Transfer(t.Context(), "alice", "carol", 3)
		require.Error(t, err)

		balanceErr := funding.InsufficientBalanceError{}
		require.ErrorAs(t, err, &balanceErr)
	})

	t.Run("fail, null account", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 10})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)
		defer func() {
			require.NoError(t, tx.Rollback(t.Context()))
		}()

		err = tx.Transfer(t.Context(), "alice", "", 1)
		require.Error(t, err)
		requireInputError(t, err)

		err = tx.Transfer(t.Context(), "", "alice", 1)
		require.Error(t, err)
		requireInputError(t, err)
	})
}

func RunTransactionTests(t *testing.T, setup fullSetupFunc) {
	t.Run("ok, balances untouched before commit", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 100})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)
		defer func() {
			require.NoError(t, tx.Rollback(t.Context()))
		}()

		err = tx.Transfer(t.Context(), "alice", "bob", 40)
		require.NoError(t, err)

		balance, err := funds.Balance(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(100), balance)
	})

	t.Run("ok, rollback discards transfers", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 100})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)

		err = tx.Transfer(t.Context(), "alice", "bob", 40)
		require.NoError(t, err)

		err = tx.Rollback(t.Context())
		require.NoError(t, err)

		balance, err := funds.Balance(t.Context(), "bob")
		require.NoError(t, err)
		require.Equal(t, uint64(0), balance)
	})

	t.Run("ok, rollback after commit is a no-op", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 100})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)

		err = tx.Transfer(t.Context(), "alice", "bob", 40)
		require.NoError(t, err)

		err = tx.Commit(t.Context())
		require.NoError(t, err)

		err = tx.Rollback(t.Context())
		require.NoError(t, err)

		balance, err := funds.Balance(t.Context(), "bob")
		require.NoError(t, err)
		require.Equal(t, uint64(40), balance)
	})

	t.Run("fail, transfer after commit", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"alice": 100})

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)

		err = tx.Commit(t.Context())
		require.NoError(t, err)

		err = tx.Transfer(t.Context(), "alice", "bob", 1)
		require.Error(t, err)
	})
}

func RunAllowanceTests(t *testing.T, setup fullSetupFunc) {
	t.Run("ok, approve and transfer from", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"treasury": 100})

		err := funds.Approve(t.Context(), "treasury", "vault", 50)
		require.NoError(t, err)

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)

		err = tx.TransferFrom(t.Context(), "vault", "treasury", "bob", 30)
		require.NoError(t, err)

		err = tx.Commit(t.Context())
		require.NoError(t, err)

		allowance, err := funds.Allowance(t.Context(), "treasury", "vault")
		require.NoError(t, err)
		require.Equal(t, uint64(20), allowance)

		balance, err := funds.Balance(t.Context(), "bob")
		require.NoError(t, err)
		require.Equal(t, uint64(30), balance)
	})

	t.Run("ok, zero approval revokes", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"treasury": 100})

		err := funds.Approve(t.Context(), "treasury", "vault", 50)
		require.NoError(t, err)

		err = funds.Approve(t.Context(), "treasury", "vault", 0)
		require.NoError(t, err)

		allowance, err := funds.Allowance(t.Context(), "treasury", "vault")
		require.NoError(t, err)
		require.Equal(t, uint64(0), allowance)
	})

	t.Run("ok, allowance is zero when never approved", func(t *testing.T) {
		funds := setup(t, nil)

		allowance, err := funds.Allowance(t.Context(), "treasury", "vault")
		require.NoError(t, err)
		require.Equal(t, uint64(0), allowance)
	})

	t.Run("fail, transfer from above allowance", func(t *testing.T) {
		funds := setup(t, map[funding.Account]uint64{"treasury": 100})

		err := funds.Approve(t.Context(), "treasury", "vault", 10)
		require.NoError(t, err)

		tx, err := funds.Begin(t.Context(), nil)
		require.NoError(t, err)
		defer func() {
			require.NoError(t, tx.Rollback(t.Context()))
		}()

		err = tx.TransferFrom(t.Context(), "vault", "treasury", "bob", 11)
		require.Error(t, err)

		allowanceErr := funding.InsufficientAllowanceError{}
		require.ErrorAs(t, err, &allowanceErr)
	})

	t.Run("fail, approve null account", func(t *testing.T) {
		funds := setup(t, nil)

		err := funds.Approve(t.Context(), "", "vault", 10)
		require.Error(t, err)
		requireInputError(t, err)
	})
}

func requireInputError(t *testing.T, err error) {
	t.Helper()

	inputErr := funding.InputError{}
	require.ErrorAs(t, err, &inputErr)
}
