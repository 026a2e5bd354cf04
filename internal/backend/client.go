// Package backend is the HTTP/WebSocket client for the trading orchestration
// API. It covers bot lifecycle, portfolio state and archived trade history;
// all heavy lifting (order execution, market data) lives on the backend side.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/stratdeck/hbotgram/internal/accounting"
	"github.com/stratdeck/hbotgram/internal/config"
)

type Client struct {
	baseURL    string
	username   string
	password   string
	pageSize   int
	httpClient *http.Client
}

// NewClient creates a new backend API client
func NewClient(cfg *config.Config) *Client {
	client := &Client{
		baseURL:  cfg.BackendURL,
		username: cfg.BackendUsername,
		password: cfg.BackendPassword,
		pageSize: cfg.TradePageSize,
		httpClient: &http.Client{
			Timeout: cfg.BackendTimeout,
		},
	}

	log.Info().Str("url", client.baseURL).Msg("🔌 Backend client initialized")
	return client
}

// Status returns backend health and version
func (c *Client) Status(ctx context.Context) (*Status, error) {
	resp, err := c.get(ctx, "/status")
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(resp, &status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &status, nil
}

// ListBots returns all bot instances known to the backend, archived included
func (c *Client) ListBots(ctx context.Context) ([]BotInfo, error) {
	resp, err := c.get(ctx, "/bots")
	if err != nil {
		return nil, err
	}

	var bots []BotInfo
	if err := json.Unmarshal(resp, &bots); err != nil {
		return nil, fmt.Errorf("parse bot list: %w", err)
	}
	return bots, nil
}

// StartBot asks the backend to start a bot instance
func (c *Client) StartBot(ctx context.Context, name string) error {
	_, err := c.post(ctx, "/bots/"+url.PathEscape(name)+"/start", nil)
	if err != nil {
		return fmt.Errorf("start bot %s: %w", name, err)
	}

	log.Info().Str("bot", name).Msg("▶️ Bot start requested")
	return nil
}

// StopBot asks the backend to stop a bot instance
func (c *Client) StopBot(ctx context.Context, name string) error {
	_, err := c.post(ctx, "/bots/"+url.PathEscape(name)+"/stop", nil)
	if err != nil {
		return fmt.Errorf("stop bot %s: %w", name, err)
	}

	log.Info().Str("bot", name).Msg("⏹️ Bot stop requested")
	return nil
}

// Portfolio returns the backend's aggregate account state
func (c *Client) Portfolio(ctx context.Context) (*Portfolio, error) {
	resp, err := c.get(ctx, "/portfolio")
	if err != nil {
		return nil, err
	}

	var portfolio Portfolio
	if err := json.Unmarshal(resp, &portfolio); err != nil {
		return nil, fmt.Errorf("parse portfolio: %w", err)
	}
	return &portfolio, nil
}

// Trades returns one page of a bot's trade history
func (c *Client) Trades(ctx context.Context, bot string, limit, offset int) (*TradePage, error) {
	path := fmt.Sprintf("/bots/%s/trades?limit=%d&offset=%d", url.PathEscape(bot), limit, offset)
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var page TradePage
	if err := json.Unmarshal(resp, &page); err != nil {
		return nil, fmt.Errorf("parse trade page: %w", err)
	}
	return &page, nil
}

// AllTrades pages through a bot's full trade history and assembles the
// complete tape. The PnL engine needs the whole list up front, so partial
// results are never returned.
func (c *Client) AllTrades(ctx context.Context, bot string) ([]accounting.Trade, error) {
	var trades []accounting.Trade

	for offset := 0; ; offset += c.pageSize {
		page, err := c.Trades(ctx, bot, c.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch trades for %s at offset %d: %w", bot, offset, err)
		}
		trades = append(trades, page.Trades...)

		if len(page.Trades) < c.pageSize {
			break
		}
	}

	log.Debug().Str("bot", bot).Int("trades", len(trades)).Msg("Trade history assembled")
	return trades, nil
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.doRequest(req)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req)
}

func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
