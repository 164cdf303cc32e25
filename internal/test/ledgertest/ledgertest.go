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

// Package ledgertest wires a complete in-memory ledger stack for tests: bank,
// gate, cashback engine, hook dispatcher and ledger, with a controllable
// clock and deterministic transfer IDs.
package ledgertest

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cloudwalk/cardledger"
	authzinmem "github.com/cloudwalk/cardledger/authz/inmem"
	"github.com/cloudwalk/cardledger/funding/inmem"
	vaultinmem "github.com/cloudwalk/cardledger/vault/inmem"
)

// Well-known fixture accounts.
const (
	Operator   cardledger.Account = "operator"
	Payer      cardledger.Account = "payer"
	Sponsor    cardledger.Account = "sponsor"
	Custody    cardledger.Account = "custody"
	Settlement cardledger.Account = "settlement"
	Treasury   cardledger.Account = "treasury"
	VaultStore cardledger.Account = "cashback-vault"
	Outsider   cardledger.Account = "outsider"
)

// EngineHookID is the fixture engine's subscriber identity.
var EngineHookID = cardledger.HookID{0xce}

// Fixture is a fully wired in-memory ledger stack. The operator account is
// allowed to run every operation; the outsider account none.
type Fixture struct {
	Bank   *inmem.Bank
	Gate   *authzinmem.Gate
	Hooks  *cardledger.HookDispatcher
	Engine *cardledger.CashbackEngine
	Ledger *cardledger.Ledger
	Vault  *vaultinmem.Vault
	Config cardledger.Config

	now time.Time
}

type Option func(*options)

type options struct {
	claimable bool
	noEngine  bool
	config    *cardledger.Config
	balances  map[cardledger.Account]uint64
}

// Claimable attaches an in-memory vault so cashback is granted as claimable
// balances instead of direct payouts.
func Claimable() Option {
	return func(o *options) { o.claimable = true }
}

// NoEngine leaves the cashback engine off the hook dispatcher.
func NoEngine() Option {
	return func(o *options) { o.noEngine = true }
}

// WithConfig overrides the fixture's ledger config.
func WithConfig(cfg cardledger.Config) Option {
	return func(o *options) { o.config = &cfg }
}

// WithBalances overrides the initial account balances.
func WithBalances(balances map[cardledger.Account]uint64) Option {
	return func(o *options) { o.balances = balances }
}

// New builds the fixture. The clock starts at a fixed instant and only moves
// through Advance.
func New(t *testing.T, opts ...Option) *Fixture {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := cardledger.DefaultConfig()
	cfg.CustodyAccount = Custody
	cfg.SettlementAccount = Settlement
	cfg.CashbackTreasury = Treasury
	if o.config != nil {
		cfg = *o.config
	}

	balances := o.balances
	if balances == nil {
		balances = map[cardledger.Account]uint64{
			Payer:    1_000_000_000,
			Sponsor:  1_000_000_000,
			Treasury: 1_000_000_000,
		}
	}

	f := &Fixture{
		Bank:   inmem.NewBank(balances),
		Gate:   authzinmem.NewGate(),
		Config: cfg,
		now:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.Gate.AllowAll(Operator)

	engineOpts := []cardledger.EngineOption{
		cardledger.WithClock(func() time.Time { return f.now }),
		cardledger.WithEngineHookID(EngineHookID),
	}
	if o.claimable {
		f.Vault = vaultinmem.NewVault(f.Bank, VaultStore)
		engineOpts = append(engineOpts, cardledger.WithVault(f.Vault))
	}

	engine, err := cardledger.NewCashbackEngine(f.Gate, f.Bank, cfg, engineOpts...)
	require.NoError(t, err)
	f.Engine = engine

	f.Hooks = cardledger.NewHookDispatcher(cardledger.HookID{0xd1})
	if !o.noEngine {
		f.Hooks.Register(engine)
	}

	var counter uint64
	ledger, err := cardledger.NewLedger(f.Gate, f.Bank, cfg,
		cardledger.WithHooks(f.Hooks),
		cardledger.WithCashbackSource(engine),
		cardledger.WithTransferIDs(func() ([]byte, error) {
			counter++
			id := make([]byte, 8)
			binary.BigEndian.PutUint64(id, counter)
			return id, nil
		}),
	)
	require.NoError(t, err)
	f.Ledger = ledger

	return f
}

// Advance moves the fixture clock forward.
func (f *Fixture) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Balance returns the account's bank balance, failing the test on error.
func (f *Fixture) Balance(t *testing.T, account cardledger.Account) uint64 {
	t.Helper()

	balance, err := f.Bank.Balance(t.Context(), account)
	require.NoError(t, err)
	return balance
}

// PaymentID builds a deterministic payment ID from a small integer.
func PaymentID(n byte) cardledger.PaymentID {
	var id cardledger.PaymentID
	id[0] = n
	id[31] = 0xff
	return id
}
