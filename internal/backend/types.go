package backend

import (
	"github.com/shopspring/decimal"

	"github.com/stratdeck/hbotgram/internal/accounting"
)

// BotInfo describes one orchestrated bot instance
type BotInfo struct {
	Name     string `json:"bot_name"`
	Strategy string `json:"strategy"`
	Status   string `json:"status"` // "running", "stopped", "archived"
	Archived bool   `json:"archived"`
}

// TradePage is one page of an archived bot's trade history
type TradePage struct {
	Trades []accounting.Trade `json:"trades"`
	Total  int                `json:"total"`
}

// Balance is one asset entry in the portfolio state
type Balance struct {
	Asset     string          `json:"asset"`
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	ValueUSD  decimal.Decimal `json:"value_usd"`
}

// Portfolio is the backend's aggregate account state
type Portfolio struct {
	Balances   []Balance       `json:"balances"`
	TotalValue decimal.Decimal `json:"total_value_usd"`
}

// Status is the backend health response
type Status struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	ActiveBots int    `json:"active_bots"`
}

// Event is one message from the backend event stream
type Event struct {
	Type      string  `json:"type"` // "bot_started", "bot_stopped", "error", "log"
	Bot       string  `json:"bot_name"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}
