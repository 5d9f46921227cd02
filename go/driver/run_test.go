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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fantom-foundation/Orbis/go/chainspec"
	"github.com/Fantom-foundation/Orbis/go/executor"
	"github.com/Fantom-foundation/Orbis/go/processor/floria"
	"github.com/Fantom-foundation/Orbis/go/rollup"
	"github.com/Fantom-foundation/Orbis/go/store"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

func saveFixture(t *testing.T, dir string, name string, fixture *Fixture) string {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	if err := fixture.Save(path); err != nil {
		t.Fatalf("failed to save fixture: %v", err)
	}
	return path
}

func TestRunFixture_AcceptsValidFixture(t *testing.T) {
	path := saveFixture(t, t.TempDir(), "valid", newTestFixture(t))

	var progress counters
	if err := runFixture(path, chainspec.Dev(), floria.NewProcessor(), "", &progress); err != nil {
		t.Fatalf("failed to run fixture: %v", err)
	}
	if want, got := int64(1), progress.blocks.Load(); want != got {
		t.Errorf("unexpected number of blocks, wanted %d, got %d", want, got)
	}
	if want, got := uint64(42_000), progress.gas.Load(); want != got {
		t.Errorf("unexpected gas, wanted %d, got %d", want, got)
	}
}

func TestRunFixture_UsesGivenChainIfFixtureHasNone(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.Chain = ""
	path := saveFixture(t, t.TempDir(), "no_chain", fixture)

	if err := runFixture(path, chainspec.BaseMainnet(), floria.NewProcessor(), "", new(counters)); err != nil {
		t.Fatalf("failed to run fixture: %v", err)
	}
}

func TestRunFixture_ReportsMismatches(t *testing.T) {
	tests := map[string]struct {
		modify func(*rollup.Header)
		check  func(error) bool
	}{
		"gas used": {
			modify: func(h *rollup.Header) { h.GasUsed++ },
			check: func(err error) bool {
				var target *executor.GasUsedMismatchError
				return errors.As(err, &target) && target.Expected == 42_001
			},
		},
		"receipts root": {
			modify: func(h *rollup.Header) { h.ReceiptsRoot = rollup.Hash{1} },
			check: func(err error) bool {
				var target *executor.ReceiptRootMismatchError
				return errors.As(err, &target) && target.Got == depositFieldsRoot
			},
		},
		"logs bloom": {
			modify: func(h *rollup.Header) { h.LogsBloom[0] = 1 },
			check: func(err error) bool {
				var target *executor.BloomMismatchError
				return errors.As(err, &target)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fixture := newTestFixture(t)
			test.modify(&fixture.Blocks[0].Header)
			path := saveFixture(t, t.TempDir(), "broken", fixture)

			var progress counters
			err := runFixture(path, chainspec.Dev(), floria.NewProcessor(), "", &progress)
			if !test.check(err) || !errors.Is(err, rollup.ErrConsensus) {
				t.Errorf("unexpected error: %v", err)
			}
			if progress.blocks.Load() != 0 {
				t.Errorf("failed block should not be counted")
			}
		})
	}
}

func TestRunFixture_UnknownChain(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.Chain = "no-such-chain"
	path := saveFixture(t, t.TempDir(), "unknown", fixture)

	if err := runFixture(path, chainspec.Dev(), floria.NewProcessor(), "", new(counters)); err == nil {
		t.Errorf("running a fixture of an unknown chain should fail")
	}
}

func TestRunFixture_PersistsStateInDatabaseDirectory(t *testing.T) {
	dir := t.TempDir()
	path := saveFixture(t, dir, "persisted", newTestFixture(t))
	dbDir := filepath.Join(dir, "db")

	if err := runFixture(path, chainspec.Dev(), floria.NewProcessor(), dbDir, new(counters)); err != nil {
		t.Fatalf("failed to run fixture: %v", err)
	}

	db, err := store.Open(filepath.Join(dbDir, "persisted"))
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()

	info, err := db.Basic(rollup.Address{})
	if err != nil {
		t.Fatalf("failed to read account: %v", err)
	}
	if info == nil || info.Nonce != 2 {
		t.Errorf("unexpected sender after execution: %v", info)
	}
}

func TestRunFixtures_CollectsFailures(t *testing.T) {
	paths := []string{"a", "b", "c", "d"}
	failure := errors.New("failure")
	failures := runFixtures(paths, 3, func(path string) error {
		if path == "b" || path == "d" {
			return failure
		}
		return nil
	})
	if want, got := 2, len(failures); want != got {
		t.Fatalf("unexpected number of failures, wanted %d, got %d", want, got)
	}
	for _, path := range []string{"b", "d"} {
		if failures[path] != failure {
			t.Errorf("missing failure of %s", path)
		}
	}
}

func TestApp_RunCommand(t *testing.T) {
	dir := t.TempDir()
	valid := saveFixture(t, dir, "valid", newTestFixture(t))
	broken := newTestFixture(t)
	broken.Blocks[0].Header.GasUsed = 0
	invalid := saveFixture(t, dir, "invalid", broken)

	tests := map[string]struct {
		args    []string
		success bool
	}{
		"valid fixture": {
			args:    []string{"run", valid},
			success: true,
		},
		"valid fixture with options": {
			args:    []string{"--verbosity", "1", "run", "--chain", "base", "--vm", "floria", "--jobs", "2", valid, valid},
			success: true,
		},
		"invalid fixture": {
			args: []string{"run", valid, invalid},
		},
		"missing fixture": {
			args: []string{"run"},
		},
		"unknown vm": {
			args: []string{"run", "--vm", "unknown", valid},
		},
		"unknown chain": {
			args: []string{"run", "--chain", filepath.Join(dir, "missing.yaml"), valid},
		},
		"list": {
			args:    []string{"list", "--schedule"},
			success: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := newApp().Run(append([]string{"orbis"}, test.args...))
			if test.success && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.success && err == nil {
				t.Errorf("expected command to fail")
			}
		})
	}
}
