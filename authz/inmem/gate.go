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

// Package inmem provides an in-memory authorization gate backed by an
// explicit allow map. Everything is denied unless allowed.
package inmem

import (
	"context"
	"sync"

	"github.com/cloudwalk/cardledger/authz"
	"github.com/cloudwalk/cardledger/funding"
)

// Gate is an in-memory allow map from account to operation set.
type Gate struct {
	mu       *sync.Mutex
	allowed  map[funding.Account]map[string]bool
	allowAll map[funding.Account]bool
}

func NewGate() *Gate {
	return &Gate{
		mu:       &sync.Mutex{},
		allowed:  make(map[funding.Account]map[string]bool),
		allowAll: make(map[funding.Account]bool),
	}
}

// Allow permits the account to run the given operations.
func (g *Gate) Allow(account funding.Account, operations ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ops := g.allowed[account]
	if ops == nil {
		ops = make(map[string]bool)
		g.allowed[account] = ops
	}
	for _, operation := range operations {
		ops[operation] = true
	}
}

// AllowAll permits the account to run every operation.
func (g *Gate) AllowAll(account funding.Account) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.allowAll[account] = true
}

// Deny removes every permission the account holds.
func (g *Gate) Deny(account funding.Account) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.allowed, account)
	delete(g.allowAll, account)
}

func (g *Gate) Authorize(ctx context.Context, caller funding.Account, operation string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.allowAll[caller] || g.allowed[caller][operation] {
		return nil
	}
	return authz.UnauthorizedError{
		Account:   caller,
		Operation: operation,
	}
}
