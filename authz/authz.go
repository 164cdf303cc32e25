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

// Package authz defines the authorization gate consulted before every
// mutating ledger and cashback operation.
package authz

import (
	"context"
	"fmt"

	"github.com/cloudwalk/cardledger/funding"
)

// Gate approves or denies a caller for a named operation. Denial aborts the
// operation before any state mutation.
type Gate interface {
	// Authorize returns nil when the caller may run the operation and an
	// [UnauthorizedError] otherwise.
	Authorize(ctx context.Context, caller funding.Account, operation string) error
}

// UnauthorizedError indicates the gate denied the caller.
type UnauthorizedError struct {
	Account   funding.Account
	Operation string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("account %q is not authorized for %q", e.Account, e.Operation)
}
