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
	"context"
	"crypto/sha256"
	"errors"
)

// HookPoint names an extension point of the payment ledger.
type HookPoint uint8

const (
	// AfterPaymentMade fires after a payment is created.
	AfterPaymentMade HookPoint = iota
	// AfterPaymentUpdated fires after an amount update or a refund.
	AfterPaymentUpdated
	// AfterPaymentCanceled fires after a revocation or a reversal; the two are
	// distinguished by the status in the new snapshot.
	AfterPaymentCanceled

	numHookPoints
)

func (p HookPoint) String() string {
	switch p {
	case AfterPaymentMade:
		return "afterPaymentMade"
	case AfterPaymentUpdated:
		return "afterPaymentUpdated"
	case AfterPaymentCanceled:
		return "afterPaymentCanceled"
	default:
		return "unknown"
	}
}

// HookID identifies a subscriber or a dispatcher for registration purposes.
type HookID [32]byte

// Subscriber receives lifecycle notifications from a [HookDispatcher].
//
// Subscribers are invoked as part of the ledger operation's commit unit: a
// returned error aborts the whole operation. Subscribers must not call back
// into the ledger; they are handed the pre and post operation snapshots and
// everything they need to act is in those. Mutating calls from inside a
// dispatch fail with [ErrReentrantCall].
type Subscriber interface {
	// HookID returns the subscriber's stable identity. Registration set
	// membership and the unregistration proof are derived from it.
	HookID() HookID

	// Supports reports whether the subscriber wants notifications for the
	// given point. It is queried at registration time.
	Supports(point HookPoint) bool

	AfterPaymentMade(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error
	AfterPaymentUpdated(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error
	AfterPaymentCanceled(ctx context.Context, id PaymentID, oldPayment, newPayment Payment) error
}

// ErrBadUnregisterProof indicates the proof handed to Unregister does not
// match the subscriber/dispatcher pair.
var ErrBadUnregisterProof = errors.New("unregister proof mismatch")

// UnregisterProof returns the proof Unregister expects for the given
// subscriber and dispatcher: sha256("unregisterHook") XOR subscriber XOR
// dispatcher. This is a safety check against accidental detachment, not an
// access control mechanism: anyone who knows both identities can compute it.
func UnregisterProof(subscriber, dispatcher HookID) HookID {
	proof := HookID(sha256.Sum256([]byte("unregisterHook")))
	for i := range proof {
		proof[i] ^= subscriber[i] ^ dispatcher[i]
	}
	return proof
}

// HookDispatcher fans lifecycle notifications out to registered subscribers.
//
// Each hook point holds a set of subscribers: a subscriber is present or
// absent, never duplicated. Dispatch order is registration order and a
// subscriber failure aborts the dispatch immediately, without invoking the
// remaining subscribers.
type HookDispatcher struct {
	id     HookID
	points [numHookPoints][]Subscriber
}

// NewHookDispatcher returns a dispatcher with the given identity.
func NewHookDispatcher(id HookID) *HookDispatcher {
	return &HookDispatcher{id: id}
}

// ID returns the dispatcher's identity.
func (d *HookDispatcher) ID() HookID {
	return d.id
}

// Register adds the subscriber to every point it claims to support.
// Re-registering is a no-op for points the subscriber is already on, and
// never removes it from points it no longer claims: registering only adds.
func (d *HookDispatcher) Register(sub Subscriber) {
	for point := HookPoint(0); point < numHookPoints; point++ {
		if !sub.Supports(point) {
			continue
		}
		if d.registered(point, sub.HookID()) {
			continue
		}
		d.points[point] = append(d.points[point], sub)
	}
}

// Unregister removes the subscriber from all points unconditionally, gated by
// the proof from [UnregisterProof].
func (d *HookDispatcher) Unregister(sub Subscriber, proof HookID) error {
	if proof != UnregisterProof(sub.HookID(), d.id) {
		return ErrBadUnregisterProof
	}

	id := sub.HookID()
	for point := range d.points {
		subs := d.points[point][:0]
		for _, s := range d.points[point] {
			if s.HookID() != id {
				subs = append(subs, s)
			}
		}
		d.points[point] = subs
	}
	return nil
}

func (d *HookDispatcher) registered(point HookPoint, id HookID) bool {
	for _, s := range d.points[point] {
		if s.HookID() == id {
			return true
		}
	}
	return false
}

// Dispatch invokes every subscriber registered at the point, in registration
// order, passing identical snapshots to each. The first subscriber failure is
// returned unmodified and the remaining subscribers are not invoked.
func (d *HookDispatcher) Dispatch(ctx context.Context, point HookPoint, id PaymentID, oldPayment, newPayment Payment) error {
	for _, sub := range d.points[point] {
		var err error
		switch point {
		case AfterPaymentMade:
			err = sub.AfterPaymentMade(ctx, id, oldPayment, newPayment)
		case AfterPaymentUpdated:
			err = sub.AfterPaymentUpdated(ctx, id, oldPayment, newPayment)
		case AfterPaymentCanceled:
			err = sub.AfterPaymentCanceled(ctx, id, oldPayment, newPayment)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
