package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// The buyer holds its simulation in memory; between CLI runs it lives in a
// file next to the session token, one per project.
func simulationPath(d *runtimeDeps, projectID string) string {
	return filepath.Join(filepath.Dir(d.cfg.Server.TokenFile), "simulation_"+projectID+".json")
}

func loadSimulation(d *runtimeDeps, projectID string) (*types.SimulationResult, error) {
	raw, err := os.ReadFile(simulationPath(d, projectID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read simulation: %w", err)
	}
	var sim types.SimulationResult
	if err := json.Unmarshal(raw, &sim); err != nil {
		return nil, fmt.Errorf("parse simulation: %w", err)
	}
	return &sim, nil
}

// saveSimulation stores sim, or removes the file when sim is nil.
func saveSimulation(d *runtimeDeps, projectID string, sim *types.SimulationResult) error {
	path := simulationPath(d, projectID)
	if sim == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove simulation: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(sim)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create simulation dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write simulation: %w", err)
	}
	return nil
}
