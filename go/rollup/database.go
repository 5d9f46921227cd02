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

//go:generate mockgen -source database.go -destination database_mock.go -package rollup

// Database is the read access to world state required to execute
// transactions. Implementations return a nil info for accounts that do not
// exist and zero words for unset storage slots.
type Database interface {
	Basic(address Address) (*AccountInfo, error)
	Storage(address Address, key Key) (Word, error)
	CodeByHash(hash Hash) (Code, error)
	BlockHash(number uint64) (Hash, error)
}
