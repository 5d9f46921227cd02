// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rollup

//go:generate mockgen -source vm.go -destination vm_mock.go -package rollup

// VM executes single transactions. Implementations must be deterministic
// and must not have side effects beyond the returned state diff; the diff
// is applied by the caller.
//
// An error signals that the transaction could not be included at all, for
// instance because of a nonce mismatch. Transactions that revert or halt
// are reported through the execution result instead.
type VM interface {
	Transact(env *Env, db Database) (ResultAndState, error)
}
