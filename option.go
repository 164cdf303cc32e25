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
	"time"

	"github.com/cloudwalk/cardledger/vault"
)

// LedgerOption configures optional ledger wiring.
type LedgerOption func(l *Ledger) error

// WithHooks attaches a hook dispatcher. Lifecycle notifications are dispatched
// through it as part of each operation's commit unit.
func WithHooks(hooks *HookDispatcher) LedgerOption {
	return func(l *Ledger) error {
		l.hooks = hooks
		return nil
	}
}

// WithCashbackSource lets the ledger report the cumulative granted cashback
// of a payment alongside its own record on reads.
func WithCashbackSource(source CashbackSource) LedgerOption {
	return func(l *Ledger) error {
		l.cashback = source
		return nil
	}
}

// WithTransferIDs overrides how the ledger generates the idempotency IDs
// handed to the funds mover. Should really only be used in tests.
func WithTransferIDs(next func() ([]byte, error)) LedgerOption {
	return func(l *Ledger) error {
		l.nextTransferID = next
		return nil
	}
}

// EngineOption configures optional cashback engine wiring.
type EngineOption func(e *CashbackEngine) error

// WithClock overrides the engine's time source for the rolling cap window.
// Should really only be used in tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *CashbackEngine) error {
		e.now = now
		return nil
	}
}

// WithVault starts the engine in claimable mode with the given balance store.
// Equivalent to calling SetCashbackVault right after construction, minus the
// authorization check.
func WithVault(store vault.Contract) EngineOption {
	return func(e *CashbackEngine) error {
		return e.setVault(store)
	}
}

// WithEngineHookID overrides the engine's subscriber identity. Should really
// only be used in tests.
func WithEngineHookID(id HookID) EngineOption {
	return func(e *CashbackEngine) error {
		e.hookID = id
		return nil
	}
}
