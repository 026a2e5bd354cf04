// Package report builds archived-bot PnL reports: it assembles the full
// trade tape from the backend, runs the accounting engine over it, persists
// a JSON report file and records the result in the database.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/stratdeck/hbotgram/internal/accounting"
	"github.com/stratdeck/hbotgram/internal/database"
)

// TradeFetcher assembles the complete trade history of one bot
type TradeFetcher interface {
	AllTrades(ctx context.Context, bot string) ([]accounting.Trade, error)
}

type Builder struct {
	fetcher TradeFetcher
	db      *database.Database
	dir     string
}

// NewBuilder creates a report builder writing JSON files into dir
func NewBuilder(fetcher TradeFetcher, db *database.Database, dir string) *Builder {
	return &Builder{fetcher: fetcher, db: db, dir: dir}
}

// file is the on-disk report layout
type file struct {
	ID          string             `json:"id"`
	BotName     string             `json:"bot_name"`
	GeneratedAt time.Time          `json:"generated_at"`
	TradeCount  int                `json:"trade_count"`
	Summary     accounting.Summary `json:"summary"`
}

// Build generates a PnL report for an archived bot and returns the summary
// together with the stored report record.
func (b *Builder) Build(ctx context.Context, bot string) (*accounting.Summary, *database.Report, error) {
	trades, err := b.fetcher.AllTrades(ctx, bot)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch trade history: %w", err)
	}

	summary := accounting.CalculatePnL(trades)

	record := &database.Report{
		ID:          uuid.NewString(),
		BotName:     bot,
		Mode:        summary.Mode.String(),
		TradeCount:  len(trades),
		TotalPnL:    decimal.NewFromFloat(summary.TotalPnL),
		TotalFees:   decimal.NewFromFloat(summary.TotalFees),
		TotalVolume: decimal.NewFromFloat(summary.TotalVolume),
	}

	path, err := b.writeFile(record.ID, bot, len(trades), summary)
	if err != nil {
		return nil, nil, err
	}
	record.FilePath = path

	if b.db != nil {
		if err := b.db.SaveReport(record); err != nil {
			// The file is already on disk; keep going but say so.
			log.Error().Err(err).Str("bot", bot).Msg("Failed to record report in database")
		}
	}

	log.Info().
		Str("bot", bot).
		Int("trades", len(trades)).
		Stringer("mode", summary.Mode).
		Float64("total_pnl", summary.TotalPnL).
		Msg("📄 PnL report generated")

	return &summary, record, nil
}

func (b *Builder) writeFile(id, bot string, tradeCount int, summary accounting.Summary) (string, error) {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(b.dir, fmt.Sprintf("%s_%s.json", bot, id))

	data, err := json.MarshalIndent(file{
		ID:          id,
		BotName:     bot,
		GeneratedAt: time.Now(),
		TradeCount:  tradeCount,
		Summary:     summary,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
