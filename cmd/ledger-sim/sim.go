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

package main

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwalk/cardledger"
	"github.com/cloudwalk/cardledger/uuidv7"
	"github.com/cloudwalk/cardledger/work"
)

func sum256(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// simulator drives random payment traffic through a worker pool: each tick
// submits one operation, either a fresh payment or a confirm, refund, revoke
// or reverse of a random active one. Operations racing on the same payment
// can lose; the loser's precondition error is just logged.
type simulator struct {
	ledger   *cardledger.Ledger
	operator cardledger.Account
	payers   []cardledger.Account
	interval time.Duration
	workers  int

	mu     sync.Mutex
	active []cardledger.PaymentID
	made   atomic.Uint64
}

func (s *simulator) run(ctx context.Context) error {
	pool := work.NewPool(64, s.workers)
	defer pool.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := pool.AddJob(ctx, work.JobFunc(func() { s.tick(ctx) }))
			if err != nil {
				// only fails when the pool or the run context is done.
				return nil
			}
		}
	}
}

func (s *simulator) tick(ctx context.Context) {
	id, cancel, ok := s.pickTarget()
	if !ok {
		s.makePayment(ctx)
		return
	}

	var err error
	switch {
	case cancel:
		if rand.IntN(4) == 0 {
			err = s.ledger.ReversePayment(ctx, s.operator, id)
		} else {
			err = s.ledger.RevokePayment(ctx, s.operator, id)
		}
	default:
		details, getErr := s.ledger.GetPayment(id)
		if getErr != nil {
			err = getErr
			break
		}
		if rand.IntN(2) == 0 {
			if remainder := details.UnconfirmedRemainder(); remainder > 0 {
				err = s.ledger.ConfirmPayment(ctx, s.operator, id, 1+rand.Uint64N(remainder))
			}
		} else {
			if remainder := details.CommonRemainder(); remainder > 0 {
				err = s.ledger.RefundPayment(ctx, s.operator, id, 1+rand.Uint64N(remainder))
			}
		}
	}
	if err != nil {
		slog.WarnContext(ctx, "simulated operation failed", "payment_id", id, "error", err)
	}
}

// pickTarget decides the next operation: ok is false for a make; otherwise it
// returns an active payment and whether to cancel it. A payment picked for
// cancellation is dropped from the active set up front so only one worker
// goes after it.
func (s *simulator) pickTarget() (id cardledger.PaymentID, cancel, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.active) == 0 || rand.IntN(3) == 0 {
		return cardledger.PaymentID{}, false, false
	}

	i := rand.IntN(len(s.active))
	id = s.active[i]
	if cancel = rand.IntN(3) == 0; cancel {
		s.active[i] = s.active[len(s.active)-1]
		s.active = s.active[:len(s.active)-1]
	}
	return id, cancel, true
}

func (s *simulator) makePayment(ctx context.Context) {
	uid, err := uuidv7.New()
	if err != nil {
		slog.WarnContext(ctx, "failed to generate payment id", "error", err)
		return
	}
	id := cardledger.PaymentID(sum256(uid[:]))

	req := cardledger.MakePaymentRequest{
		PaymentID:   id,
		Payer:       s.payers[rand.IntN(len(s.payers))],
		BaseAmount:  1_000 + rand.Uint64N(1_000_000),
		ExtraAmount: rand.Uint64N(100_000),
	}
	if err := s.ledger.MakePayment(ctx, s.operator, req); err != nil {
		slog.WarnContext(ctx, "simulated make failed", "payment_id", id, "error", err)
		return
	}

	s.mu.Lock()
	s.active = append(s.active, id)
	s.mu.Unlock()
	s.made.Add(1)
}
