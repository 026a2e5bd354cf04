// Package bot provides Telegram bot functionality
//
// telegram.go - Telegram front-end for the trading orchestration backend.
// Translates commands and button callbacks into backend API calls and
// renders the JSON responses as chat messages.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/stratdeck/hbotgram/internal/backend"
	"github.com/stratdeck/hbotgram/internal/cache"
	"github.com/stratdeck/hbotgram/internal/config"
	"github.com/stratdeck/hbotgram/internal/database"
	"github.com/stratdeck/hbotgram/internal/report"
)

// Bot handles Telegram interactions with the orchestration backend
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	db      *database.Database
	client  *backend.Client
	builder *report.Builder
	cache   *cache.Cache
	stopCh  chan struct{}
}

// New creates the Telegram front-end
func New(cfg *config.Config, db *database.Database, client *backend.Client, builder *report.Builder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram bot connected")

	return &Bot{
		api:     api,
		cfg:     cfg,
		db:      db,
		client:  client,
		builder: builder,
		cache:   cache.New(cfg.CacheTTL),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins the bot's command listener
func (b *Bot) Start() {
	go b.listenForCommands()

	if b.cfg.TelegramChatID != 0 {
		b.sendMarkdown(b.cfg.TelegramChatID, "🟢 *Bot online*\n\nUse /bots to see instances or /help for commands.")
	}
}

// Stop stops the bot
func (b *Bot) Stop() {
	close(b.stopCh)
}

// HandleBackendEvent forwards a backend stream event to subscribed chats
func (b *Bot) HandleBackendEvent(event backend.Event) {
	chats, err := b.db.GetSubscribedChats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load subscribed chats")
		return
	}

	text := formatEvent(event)
	for _, chatID := range chats {
		b.sendMarkdown(chatID, text)
	}
}

func (b *Bot) listenForCommands() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				go b.handleMessage(update.Message)
			}
			if update.CallbackQuery != nil {
				go b.handleCallback(update.CallbackQuery)
			}
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	log.Debug().
		Int64("chat_id", chatID).
		Str("text", msg.Text).
		Msg("Received message")

	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.cmdStart(chatID)
	case "help":
		b.cmdHelp(chatID)
	case "status":
		b.cmdStatus(chatID)
	case "bots":
		b.cmdBots(chatID)
	case "run":
		b.cmdRun(chatID, msg.CommandArguments())
	case "halt":
		b.cmdHalt(chatID, msg.CommandArguments())
	case "portfolio":
		b.cmdPortfolio(chatID)
	case "pnl", "report":
		b.cmdReport(chatID, msg.CommandArguments())
	case "history":
		b.cmdHistory(chatID, msg.CommandArguments())
	case "settings":
		b.cmdSettings(chatID)
	case "subscribe":
		b.cmdSubscribe(chatID)
	case "unsubscribe":
		b.cmdUnsubscribe(chatID)
	default:
		b.sendText(chatID, "❓ Unknown command. Use /help for available commands.")
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	data := cb.Data

	log.Debug().
		Int64("chat_id", chatID).
		Str("data", data).
		Msg("Received callback")

	b.api.Request(tgbotapi.NewCallback(cb.ID, ""))

	switch {
	case data == "refresh_bots":
		b.cache.Invalidate("bots")
		b.cmdBots(chatID)
	case data == "refresh_portfolio":
		b.cache.Invalidate("portfolio")
		b.cmdPortfolio(chatID)
	case data == "toggle_alerts":
		b.toggleAlerts(chatID)
	case strings.HasPrefix(data, "report:"):
		b.cmdReport(chatID, strings.TrimPrefix(data, "report:"))
	case strings.HasPrefix(data, "halt:"):
		b.cmdHalt(chatID, strings.TrimPrefix(data, "halt:"))
	case strings.HasPrefix(data, "run:"):
		b.cmdRun(chatID, strings.TrimPrefix(data, "run:"))
	}
}

// Commands

func (b *Bot) cmdStart(chatID int64) {
	settings, _ := b.db.GetUserSettings(chatID)
	settings.ChatID = chatID
	settings.AlertsEnabled = true
	b.db.SaveUserSettings(settings)

	text := `🚀 *Welcome!*

I'm the chat front-end for your trading backend.

*What I do:*
• 🤖 List, start and stop bot instances
• 💰 Show portfolio state
• 📄 Reconstruct PnL for archived bots
• 🔔 Push backend alerts to this chat

*Quick Start:*
1️⃣ /bots - see all instances
2️⃣ /pnl <bot> - archived-bot PnL report
3️⃣ /portfolio - account state

Use /help for the full command list.`

	b.sendMarkdown(chatID, text)
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `📚 *Commands*

*🤖 Bots:*
/bots - List bot instances
/run <bot> - Start a bot
/halt <bot> - Stop a bot
/status - Backend status

*📊 Accounting:*
/pnl <bot> - Build a PnL report from the bot's trades
/history <bot> - Recent reports for a bot

*💰 Account:*
/portfolio - Balances and total value

*⚙️ Settings:*
/settings - View/change settings
/subscribe - Enable backend alerts
/unsubscribe - Disable backend alerts

*PnL reports:*
Spot/market-making trades use average-cost
inventory accounting; perpetuals tagged
OPEN/CLOSE use position accounting.`

	b.sendMarkdown(chatID, text)
}

func (b *Bot) cmdStatus(chatID int64) {
	status, err := b.client.Status(context.Background())
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Backend unreachable: %s", err.Error()))
		return
	}

	settings, _ := b.db.GetUserSettings(chatID)
	alertStatus := "🟢 Enabled"
	if !settings.AlertsEnabled {
		alertStatus = "🔴 Disabled"
	}

	text := fmt.Sprintf(`📊 *Backend Status*

🖥️ *Status:* %s
🏷️ *Version:* %s
🤖 *Active Bots:* %d
🔔 *Alerts:* %s`,
		escapeMarkdown(status.Status),
		escapeMarkdown(status.Version),
		status.ActiveBots,
		alertStatus,
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 Bots", "refresh_bots"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Portfolio", "refresh_portfolio"),
		),
	)

	b.sendMarkdownWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) cmdBots(chatID int64) {
	v, err := b.cache.Fetch("bots", func() (any, error) {
		return b.client.ListBots(context.Background())
	})
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Failed to list bots: %s", err.Error()))
		return
	}
	bots := v.([]backend.BotInfo)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh_bots"),
		),
	)

	b.sendMarkdownWithKeyboard(chatID, formatBots(bots), keyboard)
}

func (b *Bot) cmdRun(chatID int64, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		b.sendText(chatID, "⚠️ Usage: /run <bot>")
		return
	}

	if err := b.client.StartBot(context.Background(), name); err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Start failed: %s", err.Error()))
		return
	}

	b.cache.Invalidate("bots")
	b.sendMarkdown(chatID, fmt.Sprintf("▶️ Start requested for *%s*", escapeMarkdown(name)))
}

func (b *Bot) cmdHalt(chatID int64, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		b.sendText(chatID, "⚠️ Usage: /halt <bot>")
		return
	}

	if err := b.client.StopBot(context.Background(), name); err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Stop failed: %s", err.Error()))
		return
	}

	b.cache.Invalidate("bots")
	b.sendMarkdown(chatID, fmt.Sprintf("⏹️ Stop requested for *%s*", escapeMarkdown(name)))
}

func (b *Bot) cmdPortfolio(chatID int64) {
	v, err := b.cache.Fetch("portfolio", func() (any, error) {
		return b.client.Portfolio(context.Background())
	})
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Failed to fetch portfolio: %s", err.Error()))
		return
	}
	portfolio := v.(*backend.Portfolio)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh_portfolio"),
		),
	)

	b.sendMarkdownWithKeyboard(chatID, formatPortfolio(portfolio), keyboard)
}

func (b *Bot) cmdReport(chatID int64, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		b.sendText(chatID, "⚠️ Usage: /pnl <bot>")
		return
	}

	b.sendText(chatID, fmt.Sprintf("⏳ Building PnL report for %s...", name))

	summary, _, err := b.builder.Build(context.Background(), name)
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Report failed: %s", err.Error()))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Rebuild", "report:"+name),
		),
	)

	b.sendMarkdownWithKeyboard(chatID, formatSummary(name, summary), keyboard)
}

func (b *Bot) cmdHistory(chatID int64, args string) {
	name := strings.TrimSpace(args)

	reports, err := b.db.GetRecentReports(name, 5)
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Failed to load reports: %s", err.Error()))
		return
	}
	if len(reports) == 0 {
		b.sendText(chatID, "📄 No reports yet. Use /pnl <bot> to build one.")
		return
	}

	text := "📄 *Recent Reports*\n"
	for _, r := range reports {
		pnl, _ := r.TotalPnL.Float64()
		text += fmt.Sprintf("\n%s *%s* · %s\n└ $%.2f over %d trades · %s",
			pnlEmoji(pnl),
			escapeMarkdown(r.BotName),
			r.CreatedAt.Format("Jan 02 15:04"),
			pnl,
			r.TradeCount,
			r.Mode,
		)
	}

	b.sendMarkdown(chatID, text)
}

func (b *Bot) cmdSettings(chatID int64) {
	settings, _ := b.db.GetUserSettings(chatID)

	alertStatus := "🟢 ON"
	alertBtn := "🔕 Turn OFF"
	if !settings.AlertsEnabled {
		alertStatus = "🔴 OFF"
		alertBtn = "🔔 Turn ON"
	}

	text := fmt.Sprintf(`⚙️ *Settings*

*Backend Alerts:* %s

Alerts are pushed when bots start, stop or error.`,
		alertStatus,
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(alertBtn, "toggle_alerts"),
		),
	)

	b.sendMarkdownWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) cmdSubscribe(chatID int64) {
	settings, _ := b.db.GetUserSettings(chatID)
	settings.AlertsEnabled = true
	b.db.SaveUserSettings(settings)

	b.sendText(chatID, "🔔 Alerts enabled! You'll receive backend notifications here.")
}

func (b *Bot) cmdUnsubscribe(chatID int64) {
	settings, _ := b.db.GetUserSettings(chatID)
	settings.AlertsEnabled = false
	b.db.SaveUserSettings(settings)

	b.sendText(chatID, "🔕 Alerts disabled. Use /subscribe to re-enable.")
}

func (b *Bot) toggleAlerts(chatID int64) {
	settings, _ := b.db.GetUserSettings(chatID)
	settings.AlertsEnabled = !settings.AlertsEnabled
	b.db.SaveUserSettings(settings)

	if settings.AlertsEnabled {
		b.sendText(chatID, "🔔 Alerts enabled!")
	} else {
		b.sendText(chatID, "🔕 Alerts disabled!")
	}
}

// Helpers

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMarkdownWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}
