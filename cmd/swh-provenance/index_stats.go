package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/softwareheritage/swh-provenance/internal/tableset"
)

var indexStatsCmd = &cobra.Command{
	Use:   "index-stats",
	Short: "Report part-file and generation counts per table (spec §6.5 per-stage metrics)",
	Long: `index-stats lists every promoted generation under --database and, for
the newest one, reports the part-file count and total byte size of each
of the four provenance tables, the columnar analogue of the teacher's
compact_stats operation reporting on its own compaction tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbDir, err := tableSetDir(cfg)
		if err != nil {
			return err
		}

		ids, err := tableset.ListGenerationIDs(dbDir)
		if err != nil {
			return fmt.Errorf("list generations under %s: %w", dbDir, err)
		}
		if len(ids) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no promoted generations under %s\n", dbDir)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "generations: %v\n", ids)
		latest := ids[len(ids)-1]
		genDir := filepath.Join(dbDir, latest)
		fmt.Fprintf(cmd.OutOrStdout(), "newest generation: %s\n", latest)

		for _, name := range tableset.TableNames {
			parts, size, err := tableStats(filepath.Join(genDir, name))
			if err != nil {
				return fmt.Errorf("stats for table %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-45s parts=%-4d bytes=%d\n", name, parts, size)
		}
		return nil
	},
}

// tableStats counts the part-*.parquet files in dir and sums their size.
func tableStats(dir string) (parts int, totalBytes int64, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, "part-*.parquet"))
	if err != nil {
		return 0, 0, err
	}
	sort.Strings(matches)
	for _, path := range matches {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return 0, 0, statErr
		}
		totalBytes += info.Size()
	}
	return len(matches), totalBytes, nil
}
