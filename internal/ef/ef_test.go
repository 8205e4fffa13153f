package ef

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndContains(t *testing.T) {
	values := []uint64{3, 7, 8, 20, 21, 100, 1000, 1000000}
	idx, err := Build(values)
	require.NoError(t, err)
	require.Equal(t, len(values), idx.Len())

	for _, v := range values {
		require.True(t, idx.Contains(v), "expected %d to be present", v)
	}
	for _, v := range []uint64{0, 1, 2, 9, 22, 999, 1000001} {
		require.False(t, idx.Contains(v), "expected %d to be absent", v)
	}
}

func TestAtReturnsSortedOrder(t *testing.T) {
	values := []uint64{1, 5, 6, 9, 1024, 1025, 2_000_000}
	idx, err := Build(values)
	require.NoError(t, err)
	for i, v := range values {
		require.Equal(t, v, idx.At(i))
	}
}

func TestBuildRejectsNonIncreasing(t *testing.T) {
	_, err := Build([]uint64{1, 1, 2})
	require.Error(t, err)

	_, err = Build([]uint64{2, 1})
	require.Error(t, err)
}

func TestEmptyIndex(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	require.Equal(t, 0, idx.Len())
	require.False(t, idx.Contains(0))
}

func TestRoundTripSerialization(t *testing.T) {
	values := []uint64{2, 4, 8, 16, 32, 64, 128, 100000, 100001}
	idx, err := Build(values)
	require.NoError(t, err)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	back, err := UnmarshalEliasFano(data)
	require.NoError(t, err)
	require.Equal(t, idx.Len(), back.Len())
	for _, v := range values {
		require.True(t, back.Contains(v))
	}
}

func TestRandomizedAgainstMap(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	set := map[uint64]bool{}
	for len(set) < 500 {
		set[uint64(r.Intn(1_000_000))] = true
	}
	values := make([]uint64, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sortUint64(values)

	idx, err := Build(values)
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		v := uint64(r.Intn(1_000_000))
		require.Equal(t, set[v], idx.Contains(v))
	}
}

func sortUint64(s []uint64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
