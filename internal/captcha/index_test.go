package captcha

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndex(t *testing.T) {
	cases := []struct {
		raw    string
		length int
		want   int
		ok     bool
	}{
		{"0", 9, 0, true},
		{"8", 9, 8, true},
		{"03", 9, 3, true},
		{" 4 ", 9, 0, false},
		{"4 ", 9, 0, false},
		{"+3", 9, 0, false},
		{"-0", 9, 0, false},
		{"\t1", 9, 0, false},
		{"9", 9, 0, false},
		{"-1", 9, 0, false},
		{"", 9, 0, false},
		{"abc", 9, 0, false},
		{"1.5", 9, 0, false},
		{"0x1", 9, 0, false},
		{"99999999999999999999", 9, 0, false},
		{"0", 0, 0, false},
		{"3", 4, 3, true},
		{"4", 4, 0, false},
	}
	for _, tc := range cases {
		got, err := ParseIndex(tc.raw, tc.length)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidIndex, "raw=%q length=%d", tc.raw, tc.length)
			continue
		}
		require.NoError(t, err, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseIndexOutOfRangeForAnyLength(t *testing.T) {
	for length := 0; length <= 16; length++ {
		for _, raw := range []string{"-1", "-100"} {
			_, err := ParseIndex(raw, length)
			assert.ErrorIs(t, err, ErrInvalidIndex)
		}
		for i := length; i < length+5; i++ {
			_, err := ParseIndex(strconv.Itoa(i), length)
			assert.ErrorIs(t, err, ErrInvalidIndex, "index %d length %d", i, length)
		}
	}
}
