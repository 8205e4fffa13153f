package column

import "sync"

// quarantined tracks part-file paths that have raised types.ErrCorruption
// at any point in this process's lifetime (spec §7: "the offending file
// is marked bad in-memory and skipped for the rest of the process
// lifetime"). A sync.Map suits this workload: writes are rare (a file is
// quarantined at most once) and reads happen on every point query across
// every concurrent caller, the same access pattern the teacher's
// blocked_cache guards against corrupt sqlite pages with.
var quarantined sync.Map

// isQuarantined reports whether path has already raised a corruption
// error and should be skipped without reopening.
func isQuarantined(path string) bool {
	_, bad := quarantined.Load(path)
	return bad
}

// quarantine permanently marks path as bad for the rest of the process.
func quarantine(path string) {
	quarantined.Store(path, struct{}{})
}
