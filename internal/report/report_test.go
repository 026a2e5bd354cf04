package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratdeck/hbotgram/internal/accounting"
)

type stubFetcher struct {
	trades []accounting.Trade
	err    error
}

func (s *stubFetcher) AllTrades(_ context.Context, _ string) ([]accounting.Trade, error) {
	return s.trades, s.err
}

func TestBuilder_Build(t *testing.T) {
	fetcher := &stubFetcher{trades: []accounting.Trade{
		{Timestamp: 1000.0, Pair: "BTC-USDT", Type: "BUY", Position: "NIL", Price: 100.0, Amount: 1.0},
		{Timestamp: 2000.0, Pair: "BTC-USDT", Type: "SELL", Position: "NIL", Price: 150.0, Amount: 1.0, FeeInQuote: 1.0},
	}}

	dir := t.TempDir()
	builder := NewBuilder(fetcher, nil, dir)

	summary, record, err := builder.Build(context.Background(), "archived_mm")
	require.NoError(t, err)

	assert.InDelta(t, 49, summary.TotalPnL, 1e-9)
	assert.Equal(t, "archived_mm", record.BotName)
	assert.Equal(t, "average_cost", record.Mode)
	assert.Equal(t, 2, record.TradeCount)
	assert.Equal(t, "49", record.TotalPnL.String())

	// The JSON file round-trips the summary.
	data, err := os.ReadFile(record.FilePath)
	require.NoError(t, err)

	var f file
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, record.ID, f.ID)
	assert.Equal(t, 2, f.TradeCount)
	assert.InDelta(t, 49, f.Summary.TotalPnL, 1e-9)
	assert.Len(t, f.Summary.CumulativePnL, 2)
}

func TestBuilder_BuildEmptyTape(t *testing.T) {
	builder := NewBuilder(&stubFetcher{}, nil, t.TempDir())

	summary, record, err := builder.Build(context.Background(), "empty_bot")
	require.NoError(t, err)

	assert.Zero(t, summary.TotalPnL)
	assert.Zero(t, record.TradeCount)
}

func TestBuilder_FetchErrorAborts(t *testing.T) {
	builder := NewBuilder(&stubFetcher{err: errors.New("backend down")}, nil, t.TempDir())

	_, _, err := builder.Build(context.Background(), "bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}
