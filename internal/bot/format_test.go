package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stratdeck/hbotgram/internal/accounting"
	"github.com/stratdeck/hbotgram/internal/backend"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "BTC\\_USDT", escapeMarkdown("BTC_USDT"))
	assert.Equal(t, "\\*bold\\* \\[x\\] \\`code\\`", escapeMarkdown("*bold* [x] `code`"))
	assert.Equal(t, "plain", escapeMarkdown("plain"))
}

func TestPnlEmoji(t *testing.T) {
	assert.Equal(t, "🟢", pnlEmoji(1.5))
	assert.Equal(t, "🔴", pnlEmoji(-0.01))
	assert.Equal(t, "⚪", pnlEmoji(0))
}

func TestFormatSummary(t *testing.T) {
	sum := accounting.CalculatePnL([]accounting.Trade{
		{Timestamp: 1000.0, Pair: "BTC-USDT", Type: "BUY", Position: "NIL", Price: 100.0, Amount: 2.0},
		{Timestamp: 2000.0, Pair: "BTC-USDT", Type: "SELL", Position: "NIL", Price: 150.0, Amount: 1.0, FeeInQuote: 1.0},
	})

	text := formatSummary("archived_mm_1", &sum)

	assert.Contains(t, text, "archived\\_mm\\_1")
	assert.Contains(t, text, "Average-Cost")
	assert.Contains(t, text, "$49.00")
	assert.Contains(t, text, "BTC-USDT")
	// Leftover inventory is listed.
	assert.Contains(t, text, "Still Open")
}

func TestFormatSummary_OpenCloseDirection(t *testing.T) {
	sum := accounting.CalculatePnL([]accounting.Trade{
		{Timestamp: 1000.0, Pair: "ETH-USDT", Type: "SELL", Position: "OPEN", Price: 1000.0, Amount: 2.0},
	})

	text := formatSummary("perp_bot", &sum)

	assert.Contains(t, text, "Open/Close")
	assert.Contains(t, text, "SHORT")
}

func TestFormatBots(t *testing.T) {
	text := formatBots([]backend.BotInfo{
		{Name: "mm_btc", Strategy: "pure_market_making", Status: "running"},
		{Name: "old_bot", Status: "archived", Archived: true},
	})

	assert.Contains(t, text, "mm\\_btc")
	assert.Contains(t, text, "pure\\_market\\_making")
	assert.Contains(t, text, "🟢")
	assert.Contains(t, text, "📦")

	assert.Equal(t, "🤖 No bots found on the backend.", formatBots(nil))
}

func TestFormatPortfolio(t *testing.T) {
	text := formatPortfolio(&backend.Portfolio{
		Balances: []backend.Balance{
			{Asset: "USDT", Total: decimal.NewFromInt(1000), Available: decimal.NewFromInt(900), ValueUSD: decimal.NewFromInt(1000)},
			{Asset: "DUST", Total: decimal.Zero},
		},
		TotalValue: decimal.NewFromInt(1000),
	})

	assert.Contains(t, text, "USDT")
	assert.Contains(t, text, "1000.0000")
	// Zero balances are hidden.
	assert.NotContains(t, text, "DUST")
}

func TestFormatEvent(t *testing.T) {
	text := formatEvent(backend.Event{Type: "bot_started", Bot: "mm_btc", Message: "strategy loaded"})
	assert.Contains(t, text, "▶️")
	assert.Contains(t, text, "mm\\_btc")
	assert.Contains(t, text, "strategy loaded")

	assert.Contains(t, formatEvent(backend.Event{Type: "error", Bot: "x"}), "❌")
}
