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

package cardledger_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cloudwalk/cardledger"
	"github.com/cloudwalk/cardledger/app/config"
)

func TestConfig(t *testing.T) {
	t.Run("ok, defaults with accounts set", func(t *testing.T) {
		cfg := cardledger.DefaultConfig()
		cfg.CustodyAccount = "custody"
		cfg.SettlementAccount = "settlement"
		cfg.CashbackTreasury = "treasury"
		require.NoError(t, cfg.IsValid())
	})

	t.Run("fail, missing accounts", func(t *testing.T) {
		cfg := cardledger.DefaultConfig()
		err := cfg.IsValid()
		require.Error(t, err)
		require.Contains(t, err.Error(), "custody_account")
		require.Contains(t, err.Error(), "settlement_account")
		require.Contains(t, err.Error(), "cashback_treasury")
	})

	t.Run("fail, rate out of range", func(t *testing.T) {
		cfg := cardledger.DefaultConfig()
		cfg.CustodyAccount = "custody"
		cfg.SettlementAccount = "settlement"
		cfg.CashbackTreasury = "treasury"
		cfg.CashbackRate = 1001
		require.Error(t, cfg.IsValid())
	})

	t.Run("fail, non-positive window", func(t *testing.T) {
		cfg := cardledger.DefaultConfig()
		cfg.CustodyAccount = "custody"
		cfg.SettlementAccount = "settlement"
		cfg.CashbackTreasury = "treasury"
		cfg.CashbackWindowDuration = 0
		require.Error(t, cfg.IsValid())
	})

	t.Run("ok, loads from YAML with env expansion", func(t *testing.T) {
		t.Setenv("TREASURY_ACCOUNT", "treasury-from-env")

		yamlSrc := `custody_account: custody
settlement_account: settlement
cashback_treasury: ${TREASURY_ACCOUNT}
cashback_rate: 75
cashback_window_cap: 1000000
`
		cfg := cardledger.DefaultConfig()
		require.NoError(t, config.MergeYAML(&cfg, strings.NewReader(yamlSrc)))

		require.Equal(t, cardledger.Account("treasury-from-env"), cfg.CashbackTreasury)
		require.Equal(t, uint16(75), cfg.CashbackRate)
		require.Equal(t, uint64(1_000_000), cfg.CashbackWindowCap)
		require.Equal(t, 30*24*time.Hour, cfg.CashbackWindowDuration, "duration default stays")
		require.NoError(t, cfg.IsValid())
	})
}
