package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSWHIDRoundTripText(t *testing.T) {
	cases := []string{
		"swh:1:cnt:94a9ed024d3859793618152ea559a168bbcbb5e2",
		"swh:1:dir:d198bc9d7a6bcf6db04f476d29314f157507d505",
		"swh:1:rev:0000000000000000000000000000000000000001",
	}
	for _, s := range cases {
		id, err := ParseSWHID(s)
		require.NoError(t, err)
		require.Equal(t, s, id.String())
	}
}

func TestSWHIDRoundTripBinary(t *testing.T) {
	id, err := ParseSWHID("swh:1:cnt:94a9ed024d3859793618152ea559a168bbcbb5e2")
	require.NoError(t, err)

	bin := id.MarshalBinary()
	require.Len(t, bin, BinarySize)

	back, err := UnmarshalSWHID(bin)
	require.NoError(t, err)
	require.Equal(t, id, back)
}

func TestParseSWHIDRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-a-swhid",
		"swh:1:cnt:tooshort",
		"swh:1:xyz:94a9ed024d3859793618152ea559a168bbcbb5e2",
		"swh:cnt:94a9ed024d3859793618152ea559a168bbcbb5e2",
	}
	for _, s := range cases {
		_, err := ParseSWHID(s)
		require.Error(t, err, "expected error for %q", s)
		require.ErrorIs(t, err, ErrInputError)
	}
}

func TestUnmarshalSWHIDRejectsWrongLength(t *testing.T) {
	_, err := UnmarshalSWHID([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrCorruption)
}

func TestJoinPaths(t *testing.T) {
	cases := []struct {
		prefix, suffix, want string
	}{
		{"", "lib/a.c", "lib/a.c"},
		{".", "lib/a.c", "lib/a.c"},
		{"lib", "", "lib"},
		{"lib", ".", "lib"},
		{"lib", "a.c", "lib/a.c"},
		{"", "", ""},
	}
	for _, c := range cases {
		got := JoinPaths(Path(c.prefix), Path(c.suffix))
		require.Equal(t, c.want, got.String())
	}
}
