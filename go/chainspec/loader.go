// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chainspec

import (
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/holiman/uint256"
	"github.com/spf13/viper"
)

// fileConfig is the layout of chain spec files. Any format supported by
// viper can be used, e.g.
//
//	name = "devnet"
//	chainId = 901
//	base = "dev"
//	create2DeployerCode = "0x6080..."
//
//	[hardforks]
//	canyon = { timestamp = 1700000000 }
//	paris = { ttd = "0", block = 0 }
type fileConfig struct {
	Name                string                `mapstructure:"name"`
	ChainID             uint64                `mapstructure:"chainid"`
	Base                string                `mapstructure:"base"`
	Create2DeployerCode string                `mapstructure:"create2deployercode"`
	Hardforks           map[string]forkConfig `mapstructure:"hardforks"`
}

type forkConfig struct {
	Block     *uint64 `mapstructure:"block"`
	Timestamp *uint64 `mapstructure:"timestamp"`
	TTD       string  `mapstructure:"ttd"`
	Never     bool    `mapstructure:"never"`
}

// LoadFile reads a chain spec from a JSON, TOML or YAML file. The format is
// derived from the file extension.
func LoadFile(path string) (*Spec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read chain spec %s: %w", path, err)
	}
	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse chain spec %s: %w", path, err)
	}
	return cfg.build()
}

func (c *fileConfig) build() (*Spec, error) {
	b := NewBuilder()
	if c.Base != "" {
		base, err := ByName(c.Base)
		if err != nil {
			return nil, err
		}
		b = FromSpec(base)
	}
	if c.Name != "" {
		b.Name(c.Name)
	}
	if c.ChainID != 0 {
		b.ChainID(c.ChainID)
	}
	if b.spec.chainID == 0 {
		return nil, fmt.Errorf("chain spec %q has no chain id", b.spec.name)
	}
	for name, fc := range c.Hardforks {
		fork, err := rollup.ParseHardfork(name)
		if err != nil {
			return nil, err
		}
		cond, err := fc.condition()
		if err != nil {
			return nil, fmt.Errorf("invalid activation of %v: %w", fork, err)
		}
		b.WithFork(fork, cond)
	}
	if c.Create2DeployerCode != "" {
		var code rollup.Code
		if err := code.UnmarshalText([]byte(strings.TrimSpace(c.Create2DeployerCode))); err != nil {
			return nil, fmt.Errorf("invalid create2 deployer code: %w", err)
		}
		b.Create2DeployerCode(code)
	}
	return b.Build(), nil
}

func (c forkConfig) condition() (ForkCondition, error) {
	switch {
	case c.Never:
		return ForkCondition{}, nil
	case c.TTD != "":
		ttd, err := uint256.FromDecimal(c.TTD)
		if err != nil {
			return ForkCondition{}, fmt.Errorf("invalid total difficulty %q: %w", c.TTD, err)
		}
		return AtTotalDifficulty(ttd, c.Block), nil
	case c.Block != nil && c.Timestamp != nil:
		return ForkCondition{}, fmt.Errorf("both block and timestamp given")
	case c.Block != nil:
		return AtBlock(*c.Block), nil
	case c.Timestamp != nil:
		return AtTimestamp(*c.Timestamp), nil
	}
	return ForkCondition{}, fmt.Errorf("no activation given")
}
