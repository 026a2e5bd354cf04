// hbotgram - Telegram front-end for a trading orchestration backend.
//
// The bot translates chat commands and button callbacks into backend API
// calls, pushes backend events into subscribed chats, and reconstructs
// realized PnL for archived bots from their trade history.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stratdeck/hbotgram/internal/backend"
	"github.com/stratdeck/hbotgram/internal/bot"
	"github.com/stratdeck/hbotgram/internal/config"
	"github.com/stratdeck/hbotgram/internal/database"
	"github.com/stratdeck/hbotgram/internal/report"
)

const version = "1.0.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Str("backend", cfg.BackendURL).
		Msg("🚀 hbotgram starting...")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Backend API client and report builder
	client := backend.NewClient(cfg)
	builder := report.NewBuilder(client, db, cfg.ReportDir)

	// Telegram bot
	telegramBot, err := bot.New(cfg, db, client, builder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	telegramBot.Start()

	// Backend event stream - pushes bot lifecycle alerts into chats
	stream := backend.NewStream(cfg.BackendWSURL)
	stream.SetEventCallback(telegramBot.HandleBackendEvent)
	stream.Start()

	log.Info().Msg("✅ All systems online")
	log.Info().Msg("💡 Use /help in Telegram for commands")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("🛑 Received shutdown signal")

	stream.Stop()
	telegramBot.Stop()

	log.Info().Msg("👋 Goodbye!")
}
