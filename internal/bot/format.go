package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stratdeck/hbotgram/internal/accounting"
	"github.com/stratdeck/hbotgram/internal/backend"
)

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}

func pnlEmoji(pnl float64) string {
	switch {
	case pnl > 0:
		return "🟢"
	case pnl < 0:
		return "🔴"
	default:
		return "⚪"
	}
}

// formatSummary renders a PnL reconstruction as a chat message
func formatSummary(bot string, sum *accounting.Summary) string {
	modeText := "Average-Cost (spot)"
	if sum.Mode == accounting.ModeOpenClose {
		modeText = "Open/Close (perpetuals)"
	}

	text := fmt.Sprintf(`📄 *PnL Report: %s*

*Accounting:* %s

%s *Total PnL:* $%.2f
├ Fees Paid: $%.2f
└ Volume: $%.2f`,
		escapeMarkdown(bot),
		modeText,
		pnlEmoji(sum.TotalPnL),
		sum.TotalPnL,
		sum.TotalFees,
		sum.TotalVolume,
	)

	if len(sum.PnLByPair) > 0 {
		pairs := make([]string, 0, len(sum.PnLByPair))
		for pair := range sum.PnLByPair {
			pairs = append(pairs, pair)
		}
		sort.Strings(pairs)

		text += "\n\n*By Pair:*"
		for _, pair := range pairs {
			text += fmt.Sprintf("\n%s %s: $%.2f", pnlEmoji(sum.PnLByPair[pair]), escapeMarkdown(pair), sum.PnLByPair[pair])
		}
	}

	if len(sum.OpenPositions) > 0 {
		pairs := make([]string, 0, len(sum.OpenPositions))
		for pair := range sum.OpenPositions {
			pairs = append(pairs, pair)
		}
		sort.Strings(pairs)

		text += "\n\n*Still Open:*"
		for _, pair := range pairs {
			pos := sum.OpenPositions[pair]
			side := ""
			if pos.Direction > 0 {
				side = " LONG"
			} else if pos.Direction < 0 {
				side = " SHORT"
			}
			text += fmt.Sprintf("\n•%s %s: %.4f @ $%.2f", side, escapeMarkdown(pair), pos.Amount, pos.AvgEntry)
		}
	}

	if n := len(sum.CumulativePnL); n > 0 {
		last := sum.CumulativePnL[n-1]
		text += fmt.Sprintf("\n\n_Last trade: %s_", last.Timestamp.Format("2006-01-02 15:04:05"))
	}

	return text
}

// formatBots renders the backend's bot list
func formatBots(bots []backend.BotInfo) string {
	if len(bots) == 0 {
		return "🤖 No bots found on the backend."
	}

	text := fmt.Sprintf("🤖 *Bots* (%d)\n", len(bots))
	for _, b := range bots {
		var statusEmoji string
		switch b.Status {
		case "running":
			statusEmoji = "🟢"
		case "stopped":
			statusEmoji = "🔴"
		default:
			statusEmoji = "📦"
		}

		strategy := b.Strategy
		if strategy == "" {
			strategy = "unknown"
		}

		text += fmt.Sprintf("\n%s *%s*\n└ %s · %s",
			statusEmoji, escapeMarkdown(b.Name), escapeMarkdown(strategy), b.Status)
	}
	return text
}

// formatPortfolio renders the backend's account state
func formatPortfolio(p *backend.Portfolio) string {
	text := "💰 *Portfolio*\n"

	for _, bal := range p.Balances {
		if bal.Total.IsZero() {
			continue
		}
		text += fmt.Sprintf("\n*%s*\n├ Total: %s\n├ Available: %s\n└ Value: $%s",
			escapeMarkdown(bal.Asset),
			bal.Total.StringFixed(4),
			bal.Available.StringFixed(4),
			bal.ValueUSD.StringFixed(2),
		)
	}

	text += fmt.Sprintf("\n\n*Total Value:* $%s", p.TotalValue.StringFixed(2))
	return text
}

// formatEvent renders a backend stream event as an alert line
func formatEvent(e backend.Event) string {
	var emoji string
	switch e.Type {
	case "bot_started":
		emoji = "▶️"
	case "bot_stopped":
		emoji = "⏹️"
	case "error":
		emoji = "❌"
	default:
		emoji = "ℹ️"
	}

	text := fmt.Sprintf("%s *%s*", emoji, escapeMarkdown(e.Bot))
	if e.Message != "" {
		text += "\n" + escapeMarkdown(e.Message)
	}
	return text
}
