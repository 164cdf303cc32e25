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

// Package testcontract holds a reusable test suite verifying a cashback
// balance store implementation against the vault contract.
package testcontract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwalk/cardledger/funding"
	"github.com/cloudwalk/cardledger/vault"
)

// SetupFunc returns a vault whose token account holds the given balance.
type SetupFunc func(t *testing.T, tokenBalance uint64) (vault.Contract, funding.Contract, error)

func TestVaultContract(t *testing.T, setupFunc SetupFunc) {
	setup := func(t *testing.T, tokenBalance uint64) (vault.Contract, funding.Contract) {
		t.Helper()

		store, funds, err := setupFunc(t, tokenBalance)
		require.NoError(t, err)

		return store, funds
	}

	t.Run("ok, grant and balance", func(t *testing.T) {
		store, _ := setup(t, 100)

		err := store.Grant(t.Context(), "alice", 60)
		require.NoError(t, err)

		err = store.Grant(t.Context(), "alice", 40)
		require.NoError(t, err)

		balance, err := store.BalanceOf(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(100), balance)
	})

	t.Run("ok, balance is zero when never granted", func(t *testing.T) {
		store, _ := setup(t, 0)

		balance, err := store.BalanceOf(t.Context(), "nobody")
		require.NoError(t, err)
		require.Equal(t, uint64(0), balance)
	})

	t.Run("ok, revoke reduces claimable", func(t *testing.T) {
		store, _ := setup(t, 100)

		err := store.Grant(t.Context(), "alice", 100)
		require.NoError(t, err)

		err = store.Revoke(t.Context(), "alice", 30)
		require.NoError(t, err)

		balance, err := store.BalanceOf(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(70), balance)
	})

	t.Run("ok, claim pays out tokens", func(t *testing.T) {
		store, funds := setup(t, 100)

		err := store.Grant(t.Context(), "alice", 100)
		require.NoError(t, err)

		err = store.Claim(t.Context(), "alice", 25)
		require.NoError(t, err)

		balance, err := store.BalanceOf(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(75), balance)

		tokens, err := funds.Balance(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(25), tokens)
	})

	t.Run("ok, claim all", func(t *testing.T) {
		store, funds := setup(t, 100)

		err := store.Grant(t.Context(), "alice", 80)
		require.NoError(t, err)

		claimed, err := store.ClaimAll(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(80), claimed)

		balance, err := store.BalanceOf(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(0), balance)

		tokens, err := funds.Balance(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(80), tokens)
	})

	t.Run("ok, claim all with empty balance", func(t *testing.T) {
		store, _ := setup(t, 0)

		claimed, err := store.ClaimAll(t.Context(), "alice")
		require.NoError(t, err)
		require.Equal(t, uint64(0), claimed)
	})

	t.Run("fail, revoke above claimable", func(t *testing.T) {
		store, _ := setup(t, 100)

		err := store.Grant(t.Context(), "alice", 10)
		require.NoError(t, err)

		err = store.Revoke(t.Context(), "alice", 11)
		require.Error(t, err)

		claimableErr := vault.InsufficientClaimableError{}
		require.ErrorAs(t, err, &claimableErr)
		require.Equal(t, uint64(10), claimableErr.Claimable)
	})

	t.Run("fail, claim above claimable", func(t *testing.T) {
		store, _ := setup(t, 100)

		err := store.Grant(t.Context(), "alice", 10)
		require.NoError(t, err)

		err = store.Claim(t.Context(), "alice", 11)
		require.Error(t, err)

		claimableErr := vault.InsufficientClaimableError{}
		require.ErrorAs(t, err, &claimableErr)
	})
}
