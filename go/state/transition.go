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
	"bytes"
	"sort"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"golang.org/x/exp/maps"
)

// TransitionAccount is the accumulated change of an account since the last
// merge into the bundle.
type TransitionAccount struct {
	// Info is the current info, nil if the account no longer exists.
	Info   *rollup.AccountInfo
	Status AccountStatus
	// PreviousInfo and PreviousStatus describe the account before the first
	// change recorded by this transition.
	PreviousInfo   *rollup.AccountInfo
	PreviousStatus AccountStatus
	Storage        map[rollup.Key]rollup.StorageSlot
	// StorageWasDestroyed is set if the storage was wiped by a self-destruct
	// or an EIP-161 pruning.
	StorageWasDestroyed bool
}

// update folds a later transition of the same account into this one.
func (t *TransitionAccount) update(other *TransitionAccount) {
	t.Info = other.Info
	t.Status = other.Status
	if other.StorageWasDestroyed {
		t.StorageWasDestroyed = true
		t.Storage = maps.Clone(other.Storage)
		return
	}
	if t.Storage == nil {
		t.Storage = map[rollup.Key]rollup.StorageSlot{}
	}
	for key, slot := range other.Storage {
		if cur, found := t.Storage[key]; found {
			cur.PresentValue = slot.PresentValue
			t.Storage[key] = cur
		} else {
			t.Storage[key] = slot
		}
	}
}

// TransitionState collects the transitions of all accounts changed since
// the last merge.
type TransitionState struct {
	Transitions map[rollup.Address]*TransitionAccount
}

func newTransitionState() *TransitionState {
	return &TransitionState{Transitions: map[rollup.Address]*TransitionAccount{}}
}

// AddTransitions records the given transitions, merging them with those
// already present for the same account.
func (s *TransitionState) AddTransitions(transitions []AddressTransition) {
	for _, entry := range transitions {
		if cur, found := s.Transitions[entry.Address]; found {
			cur.update(entry.Transition)
		} else {
			s.Transitions[entry.Address] = entry.Transition
		}
	}
}

func (s *TransitionState) take() *TransitionState {
	res := &TransitionState{Transitions: s.Transitions}
	s.Transitions = map[rollup.Address]*TransitionAccount{}
	return res
}

// AddressTransition pairs an account with one of its transitions.
type AddressTransition struct {
	Address    rollup.Address
	Transition *TransitionAccount
}

func sortedAddresses[V any](m map[rollup.Address]V) []rollup.Address {
	res := maps.Keys(m)
	sort.Slice(res, func(i, j int) bool { return bytes.Compare(res[i][:], res[j][:]) < 0 })
	return res
}
