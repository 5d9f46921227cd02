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
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"golang.org/x/exp/maps"
)

// Builder configures a new State.
type Builder struct {
	database         rollup.Database
	withBundleUpdate bool
	bundlePrestate   *BundleState
	blockHashes      map[uint64]rollup.Hash
}

// NewBuilder starts the configuration of a State reading from the given
// database.
func NewBuilder(database rollup.Database) *Builder {
	return &Builder{database: database}
}

// WithBundleUpdate enables tracking of transitions, which is required for
// MergeTransitions to produce a bundle.
func (b *Builder) WithBundleUpdate() *Builder {
	b.withBundleUpdate = true
	return b
}

// WithBundlePrestate continues accumulating into an existing bundle. The
// bundle's state takes precedence over the database.
func (b *Builder) WithBundlePrestate(bundle *BundleState) *Builder {
	b.bundlePrestate = bundle
	return b
}

// WithBlockHashes seeds the block hash cache.
func (b *Builder) WithBlockHashes(hashes map[uint64]rollup.Hash) *Builder {
	b.blockHashes = hashes
	return b
}

func (b *Builder) Build() *State {
	res := &State{
		database:    b.database,
		accounts:    map[rollup.Address]*CacheAccount{},
		contracts:   map[rollup.Hash]rollup.Code{},
		blockHashes: map[uint64]rollup.Hash{},
		bundle:      b.bundlePrestate,
	}
	if res.bundle == nil {
		res.bundle = NewBundleState()
	}
	if b.withBundleUpdate {
		res.transitions = newTransitionState()
	}
	maps.Copy(res.blockHashes, b.blockHashes)
	return res
}
