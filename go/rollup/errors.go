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

// ConstError is an error type that can be used to define immutable
// error constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// Error categories of block execution. Concrete errors report their
// category through errors.Is.
const (
	// ErrBlockValidation marks blocks violating protocol rules.
	ErrBlockValidation = ConstError("block validation failed")
	// ErrBlockExecution marks failures of the execution environment, like
	// unavailable state.
	ErrBlockExecution = ConstError("block execution failed")
	// ErrConsensus marks differences between the executed block and the
	// commitments of its header.
	ErrConsensus = ConstError("consensus check failed")
)
