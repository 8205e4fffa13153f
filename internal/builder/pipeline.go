package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/softwareheritage/swh-provenance/internal/column"
	"github.com/softwareheritage/swh-provenance/internal/graph"
	"github.com/softwareheritage/swh-provenance/internal/lockfile"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
	"github.com/softwareheritage/swh-provenance/internal/types"
)

// Options configures one end-to-end run of the index builder (spec §4.1,
// the full "earliest -> max-leaf -> frontier -> relations" pipeline).
type Options struct {
	// Workers bounds the concurrency of each stage's tree walk. Zero means
	// unbounded (errgroup.SetLimit is skipped).
	Workers int

	// PartRowTarget is the row count after which the current part file is
	// closed at the next primary-key boundary and a new one opened, keeping
	// individual Elias-Fano sidecars and row-group footers a bounded size
	// (spec §6.3). A part exceeds it when rows sharing one key straddle it.
	PartRowTarget int
}

func (o Options) partRowTarget() int {
	if o.PartRowTarget > 0 {
		return o.PartRowTarget
	}
	return 1_000_000
}

// Run executes all four stages against client and writes the resulting
// generation's four tables under a fresh staging directory inside root,
// promoting it atomically on success (spec §5: "table sets are swapped
// atomically"). It returns the final generation directory.
//
// Run takes an exclusive advisory lock on root for its whole duration
// (internal/lockfile, the same flock/LockFileEx primitive the teacher used
// to serialize its own daemon's writers) so two concurrent builder runs
// against the same output directory fail fast instead of racing to
// promote two generations.
func Run(ctx context.Context, client graph.Client, root string, opts Options) (string, error) {
	release, err := acquireBuildLock(root)
	if err != nil {
		return "", err
	}
	defer release()

	earliest, err := ComputeEarliestTimestamps(ctx, client, opts.Workers)
	if err != nil {
		return "", fmt.Errorf("builder: run: stage a: %w", err)
	}
	maxLeaf, err := ComputeMaxLeafTimestamps(ctx, client, earliest, opts.Workers)
	if err != nil {
		return "", fmt.Errorf("builder: run: stage b: %w", err)
	}
	rels, err := BuildRelations(ctx, client, maxLeaf, opts.Workers)
	if err != nil {
		return "", fmt.Errorf("builder: run: stage d: %w", err)
	}

	id := tableset.NewGenerationID(time.Now())
	stagingDir := tableset.StagingDirName(root, id)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("builder: run: create staging dir %s: %w", stagingDir, err)
	}

	if err := writeRelations(stagingDir, rels, opts.partRowTarget()); err != nil {
		_ = os.RemoveAll(stagingDir)
		return "", fmt.Errorf("builder: run: write tables: %w", err)
	}

	finalDir, err := tableset.PromoteGeneration(root, stagingDir, id)
	if err != nil {
		_ = os.RemoveAll(stagingDir)
		return "", fmt.Errorf("builder: run: promote generation: %w", err)
	}
	return finalDir, nil
}

// acquireBuildLock takes a non-blocking exclusive flock on root/BUILD.lock,
// returning a release func to call once the run is done. A held lock maps
// to ErrTransient: the caller asked for a build that cannot start right
// now, not one that can never start.
func acquireBuildLock(root string) (func(), error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("builder: run: create root %s: %w", root, err)
	}
	path := filepath.Join(root, "BUILD.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("builder: run: open lock file %s: %w", path, err)
	}
	if err := lockfile.FlockExclusiveNonBlocking(f); err != nil {
		_ = f.Close()
		if lockfile.IsLocked(err) {
			return nil, fmt.Errorf("%w: another index build already holds %s", types.ErrTransient, path)
		}
		return nil, fmt.Errorf("builder: run: lock %s: %w", path, err)
	}
	return func() {
		_ = lockfile.FlockUnlock(f)
		_ = f.Close()
	}, nil
}

func writeRelations(stagingDir string, rels *Relations, partRowTarget int) error {
	for _, name := range tableset.TableNames {
		if err := os.MkdirAll(filepath.Join(stagingDir, name), 0o755); err != nil {
			return fmt.Errorf("create table dir %s: %w", name, err)
		}
	}

	if err := writeParts(filepath.Join(stagingDir, column.TableNodes), len(rels.Nodes), partRowTarget,
		column.NewNodesPartWriter,
		func(w *column.PartWriter, i int) error {
			n := rels.Nodes[i]
			row := column.NodeRow{NodeID: uint64(n.NodeID), SWHID: string(n.SWHID.MarshalBinary())}
			return w.WriteRow(row, uint64(n.NodeID))
		},
		func(i int) uint64 { return uint64(rels.Nodes[i].NodeID) },
	); err != nil {
		return fmt.Errorf("write nodes: %w", err)
	}

	if err := writeParts(filepath.Join(stagingDir, column.TableFDIR), len(rels.FDIR), partRowTarget,
		column.NewFDIRPartWriter,
		func(w *column.PartWriter, i int) error {
			r := rels.FDIR[i]
			row := column.FrontierDirRow{FrontierDir: uint64(r.FrontierDir), Revision: uint64(r.Revision), Path: string(r.Path)}
			return w.WriteRow(row, uint64(r.FrontierDir))
		},
		func(i int) uint64 { return uint64(rels.FDIR[i].FrontierDir) },
	); err != nil {
		return fmt.Errorf("write fdir: %w", err)
	}

	if err := writeParts(filepath.Join(stagingDir, column.TableCFD), len(rels.CFD), partRowTarget,
		column.NewCFDPartWriter,
		func(w *column.PartWriter, i int) error {
			r := rels.CFD[i]
			row := column.ContentInFrontierRow{Content: uint64(r.Content), FrontierDir: uint64(r.FrontierDir), Path: string(r.Path)}
			return w.WriteRow(row, uint64(r.Content))
		},
		func(i int) uint64 { return uint64(rels.CFD[i].Content) },
	); err != nil {
		return fmt.Errorf("write cfd: %w", err)
	}

	if err := writeParts(filepath.Join(stagingDir, column.TableCRNF), len(rels.CRNF), partRowTarget,
		column.NewCRNFPartWriter,
		func(w *column.PartWriter, i int) error {
			r := rels.CRNF[i]
			row := column.ContentInRevisionRow{Content: uint64(r.Content), Revision: uint64(r.Revision), Path: string(r.Path)}
			return w.WriteRow(row, uint64(r.Content))
		},
		func(i int) uint64 { return uint64(rels.CRNF[i].Content) },
	); err != nil {
		return fmt.Errorf("write crnf: %w", err)
	}

	return nil
}

// writeParts streams rowCount rows (already primary-key sorted by the
// caller) through a sequence of PartWriters, opening a fresh one every
// partRowTarget rows so no single part file grows unbounded. keyAt
// returns row i's primary key; a part is only closed once it has reached
// partRowTarget rows AND the next row's key differs from the current
// one, so every row sharing a key (spec §4.1 "File partitioning hashes on
// primary key so each distinct key lives in exactly one file") always
// lands in the same part, keeping a key's Elias-Fano lookup to one file
// even when its row count straddles a part boundary.
func writeParts(tableDir string, rowCount, partRowTarget int, open func(string) (*column.PartWriter, error), writeRow func(*column.PartWriter, int) error, keyAt func(int) uint64) error {
	if rowCount == 0 {
		return nil
	}
	var (
		w       *column.PartWriter
		partIdx int
	)
	closeCurrent := func() error {
		if w == nil {
			return nil
		}
		err := w.Close()
		w = nil
		return err
	}
	for i := 0; i < rowCount; i++ {
		if w == nil {
			path := filepath.Join(tableDir, fmt.Sprintf("part-%05d.parquet", partIdx))
			var err error
			w, err = open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			partIdx++
		}
		if err := writeRow(w, i); err != nil {
			_ = closeCurrent()
			return err
		}
		atKeyBoundary := i+1 >= rowCount || keyAt(i+1) != keyAt(i)
		if atKeyBoundary && int(w.RowCount()) >= partRowTarget {
			if err := closeCurrent(); err != nil {
				return err
			}
		}
	}
	return closeCurrent()
}
