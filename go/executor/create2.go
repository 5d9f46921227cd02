// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package executor

import (
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

var (
	// Create2DeployerAddress hosts the create2 deployer predeploy.
	Create2DeployerAddress = rollup.HexToAddress("0x13b0D85CcB8bf860b6b79AF3029fCA081AE9beF2")

	// Create2DeployerCodeHash is the hash of the deployer's bytecode.
	Create2DeployerCodeHash = rollup.HexToHash("0xb0550b5b431e30d38000efb7107aaa0ade03d48a7198a140edda9d27134468b2")
)

// ensureCreate2Deployer installs the create2 deployer code in the first
// block of Canyon unless the account already holds it. The code is taken
// from the chain spec; if none is configured, the canonical code has to be
// known to the database, otherwise the block fails.
func ensureCreate2Deployer(chainSpec rollup.ChainSpec, features rollup.Features, db *state.State) error {
	if !features.Create2DeployerTransition {
		return nil
	}
	acc, err := db.LoadCacheAccount(Create2DeployerAddress)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrForceCreate2DeployerFail, err)
	}

	code := chainSpec.Create2DeployerCode()
	hash := Create2DeployerCodeHash
	if code == nil {
		if acc.Info != nil && acc.Info.CodeHash == hash {
			return nil
		}
		if code, err = db.CodeByHash(hash); err != nil {
			return fmt.Errorf("%w: %w: %w", ErrForceCreate2DeployerFail, ErrCreate2DeployerCodeUnknown, err)
		}
		if len(code) == 0 {
			return fmt.Errorf("%w: %w", ErrForceCreate2DeployerFail, ErrCreate2DeployerCodeUnknown)
		}
	} else if hash = code.Hash(); hash != Create2DeployerCodeHash {
		log.Warn("Configured create2 deployer code differs from the canonical code", "hash", hash, "canonical", Create2DeployerCodeHash)
	}

	info := rollup.NewAccountInfo(new(uint256.Int), 0)
	if acc.Info != nil {
		if acc.Info.CodeHash == hash {
			return nil
		}
		info = *acc.Info
	}
	info.Code = code
	info.CodeHash = hash

	log.Debug("Setting create2 deployer code", "block", features.Number, "timestamp", features.Timestamp)
	account := &rollup.Account{Info: info}
	account.MarkTouch()
	db.Commit(rollup.EvmState{Create2DeployerAddress: account})
	return nil
}
