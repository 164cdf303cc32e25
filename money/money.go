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

// Package money implements the unsigned amount arithmetic used by the payment
// ledger and the cashback engine.
//
// All monetary amounts are uint64. Subtractions that may go below zero in real
// arithmetic must go through [SubOrZero]; everything else is expected to be
// protected by a ledger invariant and uses plain subtraction. Rate arithmetic
// is integer multiply-then-divide with truncation, so repeated partial
// applications never add up to more than a single application on the total.
package money

import (
	"errors"
	"math/bits"
)

// RateUnit is the denominator of cashback rates: a rate of RateUnit equals 100%.
const RateUnit = 1000

// ErrRateOutOfRange indicates a cashback rate above 100%.
var ErrRateOutOfRange = errors.New("cashback rate exceeds the rate unit")

// SubOrZero returns a-b, clamped at zero.
func SubOrZero(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// Min returns the smaller of a and b.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// CheckRate validates that a rate does not exceed [RateUnit].
func CheckRate(rate uint16) error {
	if rate > RateUnit {
		return ErrRateOutOfRange
	}
	return nil
}

// ApplyRate returns amount*rate/RateUnit with truncation.
//
// The rate must have been validated with [CheckRate]; rates within the unit
// keep the 128-bit intermediate product small enough that the quotient always
// fits in a uint64.
func ApplyRate(amount uint64, rate uint16) uint64 {
	return MulDiv(amount, uint64(rate), RateUnit)
}

// MulDiv returns a*b/den with truncation, using a 128-bit intermediate so the
// product cannot wrap. The quotient must fit in a uint64, which holds for
// every call site in this module: rate application with rate <= RateUnit, and
// the pro-rata refund split where b/den <= 1.
func MulDiv(a, b, den uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi == 0 {
		return lo / den
	}
	quot, _ := bits.Div64(hi, lo, den)
	return quot
}
