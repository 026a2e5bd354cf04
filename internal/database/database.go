package database

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// Models

type UserSettings struct {
	ChatID        int64 `gorm:"primaryKey"`
	AlertsEnabled bool  `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Report is one generated archived-bot PnL report
type Report struct {
	ID          string `gorm:"primaryKey"`
	BotName     string `gorm:"index"`
	Mode        string // "average_cost" or "open_close"
	TradeCount  int
	TotalPnL    decimal.Decimal `gorm:"type:decimal(20,6)"`
	TotalFees   decimal.Decimal `gorm:"type:decimal(20,6)"`
	TotalVolume decimal.Decimal `gorm:"type:decimal(20,2)"`
	FilePath    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	// Check if this is a PostgreSQL connection string
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		// SQLite fallback
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	if err := db.AutoMigrate(&UserSettings{}, &Report{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// User settings operations

func (d *Database) GetUserSettings(chatID int64) (*UserSettings, error) {
	var settings UserSettings
	err := d.db.FirstOrCreate(&settings, UserSettings{ChatID: chatID}).Error
	return &settings, err
}

func (d *Database) SaveUserSettings(settings *UserSettings) error {
	return d.db.Save(settings).Error
}

// GetSubscribedChats returns every chat with alerts enabled
func (d *Database) GetSubscribedChats() ([]int64, error) {
	var chatIDs []int64
	err := d.db.Model(&UserSettings{}).Where("alerts_enabled = ?", true).Pluck("chat_id", &chatIDs).Error
	return chatIDs, err
}

// Report operations

func (d *Database) SaveReport(report *Report) error {
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()
	return d.db.Create(report).Error
}

func (d *Database) GetRecentReports(botName string, limit int) ([]Report, error) {
	var reports []Report
	q := d.db.Order("created_at DESC").Limit(limit)
	if botName != "" {
		q = q.Where("bot_name = ?", botName)
	}
	err := q.Find(&reports).Error
	return reports, err
}
