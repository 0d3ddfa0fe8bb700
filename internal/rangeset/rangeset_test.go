package rangeset_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmodel/modechoice/internal/rangeset"
)

func TestParse(t *testing.T) {
	set, err := rangeset.Parse("1609-2649, 3000,4000+")
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(1609))
	assert.True(t, set.Contains(2649))
	assert.False(t, set.Contains(2650))
	assert.True(t, set.Contains(3000))
	assert.False(t, set.Contains(3001))
	assert.True(t, set.Contains(1_000_000))
	assert.Equal(t, "1609-2649,3000,4000+", set.String())
}

func TestParse_Empty(t *testing.T) {
	set, err := rangeset.Parse("  ")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Contains(0))
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"-5", "1,,2", "a-b", "10-2", "x+"} {
		t.Run(in, func(t *testing.T) {
			_, err := rangeset.Parse(in)
			assert.ErrorIs(t, err, rangeset.ErrInvalidRangeSet)
		})
	}
}

func TestSet_UnmarshalJSON(t *testing.T) {
	var cfg struct {
		Zones rangeset.Set `json:"zones"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"zones":"0-2200"}`), &cfg))
	assert.True(t, cfg.Zones.Contains(2200))
	assert.False(t, cfg.Zones.Contains(2201))
}
