// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/rollup"
)

// ProviderError is reported when the underlying database fails to serve a
// read. It aborts the block being executed.
type ProviderError struct {
	// Op names the failed read, e.g. "account" or "storage".
	Op      string
	Address rollup.Address
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("failed to load %s of %v: %v", e.Op, e.Address, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
