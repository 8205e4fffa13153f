// Package builder implements the four-stage index builder (spec §4.1):
// earliest-timestamps, directory-max-leaf-timestamps, the
// directory-frontier decision, and the three relation tables. Each stage
// walks the graph collaborator with work-stealing parallelism
// (golang.org/x/sync/errgroup) and mutates shared per-node-id arrays with
// atomic min/max, the same "parallel threads over a shared work queue"
// shape the teacher's storage backends use for batched writes, applied
// here to tree-walking instead of SQL batching.
package builder

import (
	"math"
	"sync/atomic"
)

// unsetTimestamp marks an array slot with no recorded value yet.
const unsetTimestamp = int64(math.MaxInt64)

// newUnsetArray allocates a dense per-node-id array of size n, every slot
// initialized to unsetTimestamp.
func newUnsetArray(n uint64) []int64 {
	arr := make([]int64, n)
	for i := range arr {
		arr[i] = unsetTimestamp
	}
	return arr
}

// atomicMin stores candidate into arr[idx] if it is smaller than the
// current value, via a compare-and-swap retry loop (no atomic min
// primitive exists for int64 in the standard library).
func atomicMin(arr []int64, idx uint64, candidate int64) {
	addr := (*int64)(&arr[idx])
	for {
		cur := atomic.LoadInt64(addr)
		if candidate >= cur {
			return
		}
		if atomic.CompareAndSwapInt64(addr, cur, candidate) {
			return
		}
	}
}

// atomicMax stores candidate into arr[idx] if it is larger than the
// current value (treating unsetTimestamp as "no value", i.e. smaller than
// anything real).
func atomicMax(arr []int64, idx uint64, candidate int64) {
	addr := (*int64)(&arr[idx])
	for {
		cur := atomic.LoadInt64(addr)
		if cur != unsetTimestamp && candidate <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(addr, cur, candidate) {
			return
		}
	}
}

func get(arr []int64, idx uint64) (int64, bool) {
	v := atomic.LoadInt64((*int64)(&arr[idx]))
	return v, v != unsetTimestamp
}
