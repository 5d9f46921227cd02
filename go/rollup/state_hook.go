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

//go:generate mockgen -source state_hook.go -destination state_hook_mock.go -package rollup

// StateHook is notified about every state change produced while executing
// a block, including system calls. It is meant for tracing and indexing
// and has no influence on the execution.
type StateHook interface {
	OnState(state *ResultAndState)
}

// StateHookFunc adapts a plain function to the StateHook interface.
type StateHookFunc func(state *ResultAndState)

func (f StateHookFunc) OnState(state *ResultAndState) {
	f(state)
}

// NoopStateHook ignores all notifications.
type NoopStateHook struct{}

func (NoopStateHook) OnState(*ResultAndState) {}
