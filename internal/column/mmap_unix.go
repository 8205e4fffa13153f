//go:build unix

package column

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile memory-maps path read-only, for fast random-access reads of
// small sidecar files (Elias-Fano indexes) in the local
// columnar-store backend, the same OS-split idiom internal/lockfile uses
// for advisory locking.
func mmapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path) // #nosec G304 - path is a part/sidecar file under a configured table-set dir
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, func() error { return nil }, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("column: mmap %s: %w", path, err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
