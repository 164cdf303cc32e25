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

// ledger-sim runs an in-memory card payment ledger with the cashback engine
// attached and drives random payment traffic through it, logging ledger
// statistics periodically. Useful for eyeballing the ledger's behavior and
// its telemetry without any external infrastructure.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwalk/cardledger"
	"github.com/cloudwalk/cardledger/app"
	"github.com/cloudwalk/cardledger/app/config"
	authzinmem "github.com/cloudwalk/cardledger/authz/inmem"
	"github.com/cloudwalk/cardledger/funding/inmem"
	"github.com/cloudwalk/cardledger/otel/otelutil"
	"github.com/cloudwalk/cardledger/uuidv7"
	vaultinmem "github.com/cloudwalk/cardledger/vault/inmem"
)

const serviceName = "ledger-sim"

// Config is the simulator config: the ledger config plus traffic knobs.
type Config struct {
	Ledger cardledger.Config `yaml:"ledger"`

	// Payers is the number of payer accounts traffic is spread over.
	Payers int `yaml:"payers"`
	// Workers is the number of pool workers submitting operations.
	Workers int `yaml:"workers"`
	// TickInterval is the pause between simulated operations.
	TickInterval time.Duration `yaml:"tick_interval"`
	// StatsInterval is how often ledger statistics are logged.
	StatsInterval time.Duration `yaml:"stats_interval"`
	// Claimable switches cashback to claimable mode through an in-memory vault.
	Claimable bool `yaml:"claimable"`
}

func (c Config) IsValid() error {
	var errs error
	if err := c.Ledger.IsValid(); err != nil {
		errs = errors.Join(errs, err)
	}
	if c.Payers <= 0 {
		errs = errors.Join(errs, errors.New("payers must be positive"))
	}
	if c.Workers <= 0 {
		errs = errors.Join(errs, errors.New("workers must be positive"))
	}
	if c.TickInterval <= 0 {
		errs = errors.Join(errs, errors.New("tick_interval must be positive"))
	}
	if c.StatsInterval <= 0 {
		errs = errors.Join(errs, errors.New("stats_interval must be positive"))
	}
	return errs
}

func main() {
	code := run(context.Background())
	os.Exit(code)
}

func run(ctx context.Context) int {
	shutdown, err := otelutil.Init(context.Background(), serviceName)
	if err != nil {
		slog.Error("failed to init opentelemetry", "error", err)
		return 1
	}
	defer shutdown(context.Background())

	// start with default config and override by loading from
	// YAML file and/or environment.
	ledgerCfg := cardledger.DefaultConfig()
	ledgerCfg.CustodyAccount = "custody"
	ledgerCfg.SettlementAccount = "settlement"
	ledgerCfg.CashbackTreasury = "treasury"
	cfg := &Config{
		Ledger:        ledgerCfg,
		Payers:        10,
		Workers:       4,
		TickInterval:  250 * time.Millisecond,
		StatsInterval: 5 * time.Second,
	}

	configPath, err := config.FilenameFromArgs(os.Args[1:])
	if err != nil {
		slog.Error("failed to parse arguments", "error", err)
		return 1
	}
	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := config.Load(cfg, configPath, nil); err != nil {
			slog.Error("failed to load config", "error", err)
			return 1
		}
	}

	bank := inmem.NewBank(map[cardledger.Account]uint64{
		cfg.Ledger.CashbackTreasury: 1_000_000_000_000,
	})
	payers := make([]cardledger.Account, cfg.Payers)
	for i := range payers {
		payers[i] = cardledger.Account(fmt.Sprintf("payer-%03d", i))
		bank.Mint(payers[i], 1_000_000_000)
	}

	const operator cardledger.Account = "sim-operator"
	gate := authzinmem.NewGate()
	gate.AllowAll(operator)

	engineOpts := []cardledger.EngineOption{}
	if cfg.Claimable {
		engineOpts = append(engineOpts,
			cardledger.WithVault(vaultinmem.NewVault(bank, "cashback-vault")),
		)
	}
	engine, err := cardledger.NewCashbackEngine(gate, bank, cfg.Ledger, engineOpts...)
	if err != nil {
		slog.Error("failed to create cashback engine", "error", err)
		return 1
	}

	dispatcherID, err := uuidv7.New()
	if err != nil {
		slog.Error("failed to generate dispatcher id", "error", err)
		return 1
	}
	hooks := cardledger.NewHookDispatcher(cardledger.HookID(sum256(dispatcherID[:])))
	hooks.Register(engine)

	ledger, err := cardledger.NewLedger(gate, bank, cfg.Ledger,
		cardledger.WithHooks(hooks),
		cardledger.WithCashbackSource(engine),
	)
	if err != nil {
		slog.Error("failed to create ledger", "error", err)
		return 1
	}

	sim := &simulator{
		ledger:   ledger,
		operator: operator,
		payers:   payers,
		interval: cfg.TickInterval,
		workers:  cfg.Workers,
	}

	statsApp := app.NewSingleFuncApp(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				stats := ledger.Statistics()
				supply := bank.TotalSupply()
				slog.InfoContext(ctx, "ledger statistics",
					"total_unconfirmed_remainder", stats.TotalUnconfirmedRemainder,
					"total_supply", supply,
					"payments_made", sim.made.Load(),
				)
			}
		}
	})

	a := app.NewMulti(app.NewSingleFuncApp(sim.run), statsApp)

	// run the app until it exits or signals received
	ctx, _ = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	return app.Run(ctx, a, func() (context.Context, context.CancelFunc) {
		// signals received during graceful shutdown cause immediate exit
		return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	})
}
