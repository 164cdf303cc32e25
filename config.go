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
	"errors"
	"fmt"
	"time"

	"github.com/cloudwalk/cardledger/money"
)

// Config configures the ledger and the cashback engine via YAML files.
type Config struct {
	// CustodyAccount holds collected payment funds until they are confirmed,
	// refunded or returned.
	CustodyAccount Account `yaml:"custody_account"`
	// SettlementAccount receives confirmed payment funds ("cash-out").
	SettlementAccount Account `yaml:"settlement_account"`

	// CashbackRate is the default per-payment cashback rate in units of
	// 1/1000. A payment can override it at make time.
	CashbackRate uint16 `yaml:"cashback_rate"`
	// CashbackTreasury funds cashback grants and receives reclaims.
	CashbackTreasury Account `yaml:"cashback_treasury"`
	// CashbackWindowCap is the maximum cashback an account can be granted
	// within one rolling window.
	CashbackWindowCap uint64 `yaml:"cashback_window_cap"`
	// CashbackWindowDuration is the length of the rolling cap window. A new
	// window starts implicitly once the elapsed time since the window start
	// exceeds it.
	CashbackWindowDuration time.Duration `yaml:"cashback_window_duration"`
}

// DefaultConfig returns a new instance of Config with default values set.
// Accounts have no sensible defaults and must be configured.
func DefaultConfig() Config {
	return Config{
		CashbackRate:           100, // 10%
		CashbackWindowCap:      300_000_000,
		CashbackWindowDuration: 30 * 24 * time.Hour,
	}
}

// IsValid implements cross-field validation for the config loader.
func (c Config) IsValid() error {
	var errs error
	if c.CustodyAccount.Zero() {
		errs = errors.Join(errs, errors.New("custody_account must be set"))
	}
	if c.SettlementAccount.Zero() {
		errs = errors.Join(errs, errors.New("settlement_account must be set"))
	}
	if c.CashbackTreasury.Zero() {
		errs = errors.Join(errs, errors.New("cashback_treasury must be set"))
	}
	if err := money.CheckRate(c.CashbackRate); err != nil {
		errs = errors.Join(errs, fmt.Errorf("cashback_rate: %w", err))
	}
	if c.CashbackWindowDuration <= 0 {
		errs = errors.Join(errs, errors.New("cashback_window_duration must be positive"))
	}
	return errs
}
