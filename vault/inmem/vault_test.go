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

package inmem_test

import (
	"testing"

	"github.com/cloudwalk/cardledger/funding"
	fundinmem "github.com/cloudwalk/cardledger/funding/inmem"
	"github.com/cloudwalk/cardledger/vault"
	"github.com/cloudwalk/cardledger/vault/inmem"
	"github.com/cloudwalk/cardledger/vault/testcontract"
)

func TestContract(t *testing.T) {
	testcontract.TestVaultContract(t, func(t *testing.T, tokenBalance uint64) (vault.Contract, funding.Contract, error) {
		const vaultAccount funding.Account = "cashback-vault"

		bank := fundinmem.NewBank(map[funding.Account]uint64{vaultAccount: tokenBalance})
		return inmem.NewVault(bank, vaultAccount), bank, nil
	})
}