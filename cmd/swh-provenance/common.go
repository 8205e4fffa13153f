package main

import (
	"fmt"
	"runtime"

	"github.com/softwareheritage/swh-provenance/internal/config"
	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// loadConfig resolves the shared Config (spec §6.5 env/flag/file
// precedence) for the current working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, ".")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadGraphClient opens the fixture dump named by --graph. The real
// Software Heritage graph service is out of scope for this repository
// (spec §1); every subcommand that needs a graph.Client reads one from a
// file gen-test-database produced.
func loadGraphClient(cfg *config.Config) (*graph.Fixture, error) {
	if cfg.GraphPath == "" {
		return nil, fmt.Errorf("%w: --graph is required", types.ErrInputError)
	}
	client, err := graph.Load(cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", cfg.GraphPath, err)
	}
	return client, nil
}

// workerCount resolves cfg.Workers, defaulting to runtime.NumCPU() the
// way Config.Workers' doc describes ("0 = runtime.NumCPU()").
func workerCount(cfg *config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return runtime.NumCPU()
}

// tableSetDir resolves the table-set directory a build writes to or a
// query reads from: --database when set, else provenance.yaml's
// table-set-dir.
func tableSetDir(cfg *config.Config) (string, error) {
	if cfg.DBURL != "" {
		return cfg.DBURL, nil
	}
	if cfg.TableSetDir != "" {
		return cfg.TableSetDir, nil
	}
	return "", fmt.Errorf("%w: --database or provenance.yaml's table-set-dir is required", types.ErrInputError)
}
