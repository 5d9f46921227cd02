// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cliUtils

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

type chainFlagType struct {
	cli.StringFlag
}

var ChainFlag = &chainFlagType{
	cli.StringFlag{
		Name:    "chain",
		Aliases: []string{"c"},
		Usage:   "name of a chain preset or path of a chain spec file",
		Value:   "dev",
	},
}

func (f *chainFlagType) Fetch(context *cli.Context) (*chainspec.Spec, error) {
	return chainspec.Resolve(context.String(f.Name))
}

type vmFlagType struct {
	cli.StringFlag
}

var VMFlag = &vmFlagType{
	cli.StringFlag{
		Name:  "vm",
		Usage: "name of the VM executing transactions",
		Value: "floria",
	},
}

func (f *vmFlagType) Fetch(context *cli.Context) (rollup.VM, error) {
	vm, err := rollup.NewVM(context.String(f.Name))
	if err != nil {
		return nil, fmt.Errorf("%w, use one of: %v", err, rollup.RegisteredVMs())
	}
	return vm, nil
}

type jobsFlagType struct {
	cli.IntFlag
}

var JobsFlag = &jobsFlagType{
	cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of jobs run simultaneously",
		Value:   runtime.NumCPU(),
	},
}

func (f *jobsFlagType) Fetch(context *cli.Context) int {
	if jobs := context.Int(f.Name); jobs > 0 {
		return jobs
	}
	return runtime.NumCPU()
}

type dbFlagType struct {
	cli.StringFlag
}

var DbFlag = &dbFlagType{
	cli.StringFlag{
		Name:      "db",
		Usage:     "directory of persistent stores; if empty, states are kept in memory",
		TakesFile: true,
	},
}

func (f *dbFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type verbosityFlagType struct {
	cli.IntFlag
}

var VerbosityFlag = &verbosityFlagType{
	cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	},
}

func (f *verbosityFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

// SetupLogging installs a terminal log handler filtering by the verbosity
// given on the command line.
func SetupLogging(context *cli.Context) error {
	level := log.FromLegacyLevel(VerbosityFlag.Fetch(context))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false)))
	return nil
}

type cpuProfileType struct {
	cli.StringFlag
}

var CpuProfileFlag = &cpuProfileType{
	cli.StringFlag{
		Name:      "cpuprofile",
		Usage:     "store CPU profile in the provided filename",
		TakesFile: true,
	},
}

func (f *cpuProfileType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

// AddCpuProfiling wraps the action of the given command such that a CPU
// profile is recorded if requested.
func AddCpuProfiling(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, CpuProfileFlag)

	action := command.Action
	command.Action = func(ctx *cli.Context) (err error) {
		if filename := CpuProfileFlag.Fetch(ctx); filename != "" {
			f, err := os.Create(filename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}
		return action(ctx)
	}
	return command
}
