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

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// VM implementations make themselves available by registering a factory
// under a name, typically in the init code of their package. Clients select
// an implementation by that name, e.g. from a command line flag.

// VMFactory creates a new VM using an implementation specific
// configuration. A nil configuration selects the default configuration.
type VMFactory func(config any) (VM, error)

// NewVM performs a lookup for the given name (case-insensitive) in the
// registry and creates a new VM using the given optional configuration.
func NewVM(name string, config ...any) (VM, error) {
	if len(config) > 1 {
		return nil, fmt.Errorf("invalid configuration: too many arguments")
	}
	factory := GetVMFactory(name)
	if factory == nil {
		return nil, fmt.Errorf("vm not found: %s", name)
	}
	c := any(nil)
	if len(config) > 0 {
		c = config[0]
	}
	return factory(c)
}

// GetVMFactory performs a lookup for the given name (case-insensitive) in
// the registry. The result is nil if no factory was registered under the
// given name.
func GetVMFactory(name string) VMFactory {
	vmRegistryLock.Lock()
	defer vmRegistryLock.Unlock()
	return vmRegistry[strings.ToLower(name)]
}

// RegisteredVMs lists the names of all registered implementations in
// lexicographical order.
func RegisteredVMs() []string {
	vmRegistryLock.Lock()
	defer vmRegistryLock.Unlock()
	names := maps.Keys(vmRegistry)
	sort.Strings(names)
	return names
}

// RegisterVMFactory registers a new VM implementation. The name is not
// case-sensitive. Registering a nil factory or a name twice fails.
func RegisterVMFactory(name string, factory VMFactory) error {
	key := strings.ToLower(name)
	if factory == nil {
		return fmt.Errorf("invalid initialization: cannot register nil-factory using `%s`", key)
	}
	vmRegistryLock.Lock()
	defer vmRegistryLock.Unlock()
	if _, found := vmRegistry[key]; found {
		return fmt.Errorf("invalid initialization: multiple factories registered for `%s`", key)
	}
	vmRegistry[key] = factory
	return nil
}

var vmRegistry = map[string]VMFactory{}

var vmRegistryLock sync.Mutex
