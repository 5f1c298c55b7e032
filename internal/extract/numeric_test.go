package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"2x":    2,
		" 12x ": 12,
		"3×":    3,
		"1 X":   1,
		"4":     4,
		"2.5x":  2,
	}
	for in, want := range cases {
		got, err := parseQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "x", "two", "$5", "0x", "-1x", "-0x"} {
		_, err := parseQuantity(in)
		assert.Error(t, err, in)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"$5.00":  5,
		" $3.5 ": 3.5,
		"12":     12,
		"-$2.00": -2,
		"$ 7.25": 7.25,
		"$.50":   0.5,
		"$3.":    3,
	}
	for in, want := range cases {
		got, err := parseAmount(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	for _, in := range []string{
		"", "$", "free", "$1,200.00", "NaN", "$nan", "Inf", "-Infinity",
		"$0x1p3", "1e3", "$5.00 USD", "--2", ".",
	} {
		_, err := parseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher("")
	id := h.RestaurantID("Joe's Diner")
	assert.Len(t, id, 64)
	assert.Equal(t, id, NewHasher(DefaultIDKey).RestaurantID("Joe's Diner"))
	assert.NotEqual(t, id, h.RestaurantID("Joe's Grill"))
	assert.Equal(t, h.Sum("ab", "cd"), h.OrderItemID("ab", "cd"))
	assert.Equal(t, h.Sum("abcd"), h.OrderItemID("ab", "cd"))
}
