package accounting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{"epoch seconds float", 1700000000.0, time.Unix(1700000000, 0), true},
		{"epoch seconds int", 1700000000, time.Unix(1700000000, 0), true},
		{"epoch milliseconds", 1700000000500.0, time.Unix(1700000000, 500000000), true},
		{"epoch string", "1700000000", time.Unix(1700000000, 0), true},
		{"iso with T and Z", "2023-11-14T22:13:20Z", time.Unix(1700000000, 0), true},
		{"iso with offset", "2023-11-14T22:13:20+00:00", time.Unix(1700000000, 0), true},
		{"iso with space separator", "2023-11-14 22:13:20", time.Date(2023, 11, 14, 22, 13, 20, 0, time.Local), true},
		{"iso without zone", "2023-11-14T22:13:20", time.Date(2023, 11, 14, 22, 13, 20, 0, time.Local), true},
		{"fractional seconds", "2023-11-14 22:13:20.5", time.Date(2023, 11, 14, 22, 13, 20, 500000000, time.Local), true},
		{"date only", "2023-11-14", time.Date(2023, 11, 14, 0, 0, 0, 0, time.Local), true},
		{"passthrough time.Time", time.Unix(1700000000, 0), time.Unix(1700000000, 0), true},
		{"garbage string", "not-a-date", time.Time{}, false},
		{"empty string", "", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
		{"bool", true, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTimestamp(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float64", 1.5, 1.5},
		{"int", 3, 3},
		{"numeric string", "2.25", 2.25},
		{"padded string", " 10 ", 10},
		{"garbage string", "abc", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toFloat(tt.input))
		})
	}
}

func TestNormalize_OrderingAndCoercion(t *testing.T) {
	fills := normalize([]Trade{
		{Timestamp: 3000.0, Pair: "BTC-USDT", Type: "sell", Position: "nil", Price: "150", Amount: 1, FeeInQuote: nil},
		{Timestamp: "bogus", Pair: "ETH-USDT", Type: "BUY", Position: "", Price: 10.0, Amount: 2.0},
		{Timestamp: 1000.0, Pair: "BTC-USDT", Type: "BUY", Position: "NIL", Price: 100.0, Amount: 1.0, FeeInQuote: 0.1},
	})

	require.Len(t, fills, 3)

	// Unparseable timestamp sorts first, the rest ascend.
	assert.Equal(t, "ETH-USDT", fills[0].pair)
	assert.False(t, fills[0].hasTS)
	assert.Equal(t, "BTC-USDT", fills[1].pair)
	assert.Equal(t, SideBuy, fills[1].side)
	assert.Equal(t, SideSell, fills[2].side)
	assert.True(t, fills[1].ts.Before(fills[2].ts))

	// Coerced fields.
	assert.Equal(t, 150.0, fills[2].price)
	assert.Equal(t, 0.0, fills[2].fee)
	assert.Equal(t, PositionNil, fills[2].pos)
}

func TestNormalize_StableTies(t *testing.T) {
	fills := normalize([]Trade{
		{Timestamp: 1000.0, Pair: "A", Type: "BUY", Price: 1.0, Amount: 1.0},
		{Timestamp: 1000.0, Pair: "B", Type: "BUY", Price: 1.0, Amount: 1.0},
		{Timestamp: 1000.0, Pair: "C", Type: "BUY", Price: 1.0, Amount: 1.0},
	})

	require.Len(t, fills, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{fills[0].pair, fills[1].pair, fills[2].pair})
}
