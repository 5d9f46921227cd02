// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/urfave/cli/v2"
)

var ListCmd = cli.Command{
	Action: doList,
	Name:   "list",
	Usage:  "List available chain presets and VMs",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "schedule",
			Usage: "print the hardfork schedule of each chain",
		},
	},
}

func doList(context *cli.Context) error {
	fmt.Println("Chains:")
	for _, name := range chainspec.PresetNames() {
		fmt.Printf("\t%s\n", name)
		if !context.Bool("schedule") {
			continue
		}
		spec, err := chainspec.ByName(name)
		if err != nil {
			return err
		}
		for _, fork := range spec.Schedule() {
			fmt.Printf("\t\t%-15v %v\n", fork.Fork, fork.Condition)
		}
	}
	fmt.Println("VMs:")
	for _, name := range rollup.RegisteredVMs() {
		fmt.Printf("\t%s\n", name)
	}
	return nil
}
