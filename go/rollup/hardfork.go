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
	"encoding/json"
	"fmt"
	"strings"
)

// Hardfork enumerates the protocol upgrades known to the engine. Ethereum
// and Optimism upgrades are interleaved in activation order, so a later
// constant always includes the rules of every earlier one.
type Hardfork int

const (
	Frontier Hardfork = iota
	Homestead
	DAO
	Tangerine
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	MuirGlacier
	Berlin
	London
	ArrowGlacier
	GrayGlacier
	Paris
	Bedrock
	Regolith
	Shanghai
	Canyon
	Cancun
	Ecotone
	Fjord
	numHardforks
)

var hardforkNames = [numHardforks]string{
	Frontier:       "Frontier",
	Homestead:      "Homestead",
	DAO:            "DAO",
	Tangerine:      "Tangerine",
	SpuriousDragon: "SpuriousDragon",
	Byzantium:      "Byzantium",
	Constantinople: "Constantinople",
	Petersburg:     "Petersburg",
	Istanbul:       "Istanbul",
	MuirGlacier:    "MuirGlacier",
	Berlin:         "Berlin",
	London:         "London",
	ArrowGlacier:   "ArrowGlacier",
	GrayGlacier:    "GrayGlacier",
	Paris:          "Paris",
	Bedrock:        "Bedrock",
	Regolith:       "Regolith",
	Shanghai:       "Shanghai",
	Canyon:         "Canyon",
	Cancun:         "Cancun",
	Ecotone:        "Ecotone",
	Fjord:          "Fjord",
}

// Hardforks lists all known hardforks in activation order.
func Hardforks() []Hardfork {
	res := make([]Hardfork, 0, numHardforks)
	for f := Frontier; f < numHardforks; f++ {
		res = append(res, f)
	}
	return res
}

// ParseHardfork resolves a hardfork by its name, ignoring case.
func ParseHardfork(name string) (Hardfork, error) {
	for f, n := range hardforkNames {
		if strings.EqualFold(n, name) {
			return Hardfork(f), nil
		}
	}
	return 0, fmt.Errorf("unknown hardfork: %s", name)
}

func (h Hardfork) String() string {
	if h < 0 || h >= numHardforks {
		return fmt.Sprintf("Hardfork(%d)", h)
	}
	return hardforkNames[h]
}

// IsOptimism reports whether the hardfork is an Optimism network upgrade.
func (h Hardfork) IsOptimism() bool {
	switch h {
	case Bedrock, Regolith, Canyon, Ecotone, Fjord:
		return true
	}
	return false
}

func (h Hardfork) MarshalJSON() ([]byte, error) {
	if h < 0 || h >= numHardforks {
		return nil, &json.UnsupportedValueError{Str: h.String()}
	}
	return json.Marshal(h.String())
}

func (h *Hardfork) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	fork, err := ParseHardfork(s)
	if err != nil {
		return err
	}
	*h = fork
	return nil
}
