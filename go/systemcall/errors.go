// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package systemcall

import (
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/rollup"
)

const ErrMissingParentBeaconBlockRoot = rollup.ConstError("missing parent beacon block root")

// GenesisParentBeaconBlockRootNotZeroError is reported if a genesis block
// activating Cancun declares a non-zero parent beacon block root.
type GenesisParentBeaconBlockRootNotZeroError struct {
	Root rollup.Hash
}

func (e *GenesisParentBeaconBlockRootNotZeroError) Error() string {
	return fmt.Sprintf("the parent beacon block root is not zero for Cancun genesis block: %v", e.Root)
}

func (e *GenesisParentBeaconBlockRootNotZeroError) Is(target error) bool {
	return target == rollup.ErrBlockValidation
}

// BeaconRootContractCallError is reported if the VM rejected the call of
// the beacon roots contract.
type BeaconRootContractCallError struct {
	Root rollup.Hash
	Err  error
}

func (e *BeaconRootContractCallError) Error() string {
	return fmt.Sprintf("failed to apply beacon root contract call at %v: %v", e.Root, e.Err)
}

func (e *BeaconRootContractCallError) Unwrap() error {
	return e.Err
}

func (e *BeaconRootContractCallError) Is(target error) bool {
	return target == rollup.ErrBlockValidation
}
