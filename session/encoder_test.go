package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePreservesFields(t *testing.T) {
	cases := map[string]Snapshot{
		"full":      testSnapshot(),
		"zero time": {ID: 1, Email: "b@x.com", DisplayName: "bo"},
		"no avatar": {ID: 7, Email: "c@x.com", DisplayName: "cy", Confirmed: true, CreatedAt: time.Unix(1_700_000_000, 0).UTC()},
	}
	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(snap)
			require.NoError(t, err)
			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}
}

func TestNormalizeMatchesDecodedPrecision(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	raw := Snapshot{ID: 1, Email: "a@x.com", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 999_999_999, loc)}

	data, err := Encode(raw)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, raw.Normalize(), decoded)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	valid, err := Encode(testSnapshot())
	require.NoError(t, err)

	_, err = Decode(nil)
	assert.Error(t, err)

	_, err = Decode(append([]byte{2}, valid[1:]...))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode(valid[:len(valid)-3])
	assert.Error(t, err)

	_, err = Decode(append(valid, 0))
	assert.Error(t, err)
}

func TestEncodeRejectsOversizedField(t *testing.T) {
	_, err := Encode(Snapshot{Email: strings.Repeat("a", 70000)})
	assert.Error(t, err)
}
