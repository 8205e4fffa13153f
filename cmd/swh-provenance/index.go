package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/btree"
	"github.com/spf13/cobra"

	"github.com/softwareheritage/swh-provenance/internal/builder"
	"github.com/softwareheritage/swh-provenance/internal/ef"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one stage (or the full pipeline) of the index builder",
}

func init() {
	indexCmd.AddCommand(earliestTimestampsCmd)
	indexCmd.AddCommand(maxLeafTimestampsCmd)
	indexCmd.AddCommand(directoryFrontierCmd)
	indexCmd.AddCommand(relationsCmd)
}

var earliestTimestampsCmd = &cobra.Command{
	Use:   "earliest-timestamps",
	Short: "Stage A: compute the earliest committer date per content (spec §4.1)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := loadGraphClient(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd)
		ctx, cancel := signalContext()
		defer cancel()

		if _, err := builder.ComputeEarliestTimestamps(ctx, client, workerCount(cfg)); err != nil {
			return fmt.Errorf("stage a: %w", err)
		}
		log.Info("stage a complete", "stage", "earliest-timestamps")
		return nil
	},
}

var maxLeafTimestampsCmd = &cobra.Command{
	Use:   "directory-max-leaf-timestamps",
	Short: "Stage B: compute the max-leaf timestamp per directory (spec §4.2)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := loadGraphClient(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd)
		ctx, cancel := signalContext()
		defer cancel()

		workers := workerCount(cfg)
		earliest, err := builder.ComputeEarliestTimestamps(ctx, client, workers)
		if err != nil {
			return fmt.Errorf("stage a: %w", err)
		}
		if _, err := builder.ComputeMaxLeafTimestamps(ctx, client, earliest, workers); err != nil {
			return fmt.Errorf("stage b: %w", err)
		}
		log.Info("stage b complete", "stage", "directory-max-leaf-timestamps")
		return nil
	},
}

var directoryFrontierCmd = &cobra.Command{
	Use:   "directory-frontier",
	Short: "Stage C: compute the frontier directory set (spec §4.3)",
	Long: `Stage C walks every revision's tree, cutting at the first directory
that is strictly older than the revision (spec §4.3's "maximal" rule), and
writes the distinct frontier directory set to --database/frontier/ as a
sorted node-id list plus an Elias-Fano membership structure, the on-disk
shape spec §4.3 names for Stage C's output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := loadGraphClient(cfg)
		if err != nil {
			return err
		}
		dbDir, err := tableSetDir(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd)
		ctx, cancel := signalContext()
		defer cancel()

		workers := workerCount(cfg)
		earliest, err := builder.ComputeEarliestTimestamps(ctx, client, workers)
		if err != nil {
			return fmt.Errorf("stage a: %w", err)
		}
		maxLeaf, err := builder.ComputeMaxLeafTimestamps(ctx, client, earliest, workers)
		if err != nil {
			return fmt.Errorf("stage b: %w", err)
		}
		rels, err := builder.BuildRelations(ctx, client, maxLeaf, workers)
		if err != nil {
			return fmt.Errorf("stage c: %w", err)
		}

		// A btree.BTreeG dedups on insert and yields Ascend order directly,
		// avoiding the separate collect-into-map-then-sort-slice pass a
		// plain map would need.
		frontierSet := btree.NewG(32, func(a, b uint64) bool { return a < b })
		for _, row := range rels.FDIR {
			frontierSet.ReplaceOrInsert(uint64(row.FrontierDir))
		}
		sorted := make([]uint64, 0, frontierSet.Len())
		frontierSet.Ascend(func(id uint64) bool {
			sorted = append(sorted, id)
			return true
		})

		frontierDir := filepath.Join(dbDir, "frontier")
		if err := os.MkdirAll(frontierDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", frontierDir, err)
		}
		if err := writeFrontierSet(frontierDir, sorted); err != nil {
			return err
		}
		log.Info("stage c complete", "stage", "directory-frontier", "frontier_directory_count", len(sorted))
		return nil
	},
}

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Stage D: build and promote nodes/FDIR/CFD/CRNF (spec §4.4)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := loadGraphClient(cfg)
		if err != nil {
			return err
		}
		dbDir, err := tableSetDir(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd)
		ctx, cancel := signalContext()
		defer cancel()

		finalDir, err := builder.Run(ctx, client, dbDir, builder.Options{Workers: workerCount(cfg)})
		if err != nil {
			return fmt.Errorf("stage d: %w", err)
		}
		log.Info("stage d complete", "stage", "relations", "generation_dir", finalDir)
		return nil
	},
}

// writeFrontierSet writes the sorted frontier directory node-ids as both
// a plain sorted list (frontier-directories.txt, one id per line, for
// operators) and a serialized Elias-Fano membership structure
// (frontier-directories.ef, for program consumption). The .ef file is
// written only when the set is non-empty.
func writeFrontierSet(dir string, sorted []uint64) error {
	txtPath := filepath.Join(dir, "frontier-directories.txt")
	f, err := os.Create(txtPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", txtPath, err)
	}
	defer f.Close()
	for _, id := range sorted {
		if _, err := fmt.Fprintf(f, "%d\n", id); err != nil {
			return fmt.Errorf("write %s: %w", txtPath, err)
		}
	}

	if len(sorted) == 0 {
		return nil
	}
	structure, err := ef.Build(sorted)
	if err != nil {
		return fmt.Errorf("build frontier EF index: %w", err)
	}
	data, err := structure.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal frontier EF index: %w", err)
	}
	efPath := filepath.Join(dir, "frontier-directories.ef")
	if err := os.WriteFile(efPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", efPath, err)
	}
	return nil
}
