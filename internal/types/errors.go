package types

import (
	"context"
	"errors"
)

// Error taxonomy (spec §7). Callers use errors.Is against these sentinels;
// concrete errors are produced with fmt.Errorf("...: %w", ErrXxx) the way
// the teacher wraps internal/rpc.ErrDaemonUnavailable and the sqlite layer
// wraps driver errors throughout internal/storage/sqlite/queries.go.
var (
	// ErrInputError marks a malformed SWHID or unknown type. User-visible,
	// never retried.
	ErrInputError = errors.New("input error")

	// ErrNotFound marks an absent node-id or an empty provenance result.
	// Not surfaced as a transport error: callers translate it to an empty
	// WhereIsOneResult, not a gRPC status.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks a storage timeout or connection reset. Retried
	// locally up to a bounded number of attempts before surfacing as
	// UNAVAILABLE.
	ErrTransient = errors.New("transient storage error")

	// ErrCorruption marks an Elias-Fano/Parquet consistency mismatch or a
	// violated invariant. Logged loudly, surfaced as INTERNAL; the
	// offending file is quarantined for the rest of the process lifetime.
	ErrCorruption = errors.New("corruption detected")
)

// IsCancelled reports whether err is a cancellation or deadline error that
// should be surfaced verbatim (spec §7) rather than retried or wrapped.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
