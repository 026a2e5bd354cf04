// Package accounting reconstructs realized PnL from an archived bot's trade
// tape. Two regimes are supported: weighted-average-cost inventory for
// spot/market-making fills, and OPEN/CLOSE position accounting for perpetual
// futures. The caller assembles the complete trade list up front; the engine
// is a pure function over it and keeps no state between calls.
package accounting

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Trade sides and position tags after normalization.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	PositionOpen  = "OPEN"
	PositionClose = "CLOSE"
	PositionNil   = "NIL"
)

// Trade is one raw fill as returned by the backend. The backend is not strict
// about field types (numbers arrive as JSON numbers, strings, or not at all),
// so timestamp and the numeric fields stay loosely typed until normalization.
// A Trade is never mutated once ingested.
type Trade struct {
	Timestamp  any    `json:"timestamp"`
	Pair       string `json:"trading_pair"`
	Type       string `json:"trade_type"`
	Position   string `json:"position"`
	Price      any    `json:"price"`
	Amount     any    `json:"amount"`
	FeeInQuote any    `json:"trade_fee_in_quote"`
}

// fill is the canonical form of a Trade used by the engines.
type fill struct {
	ts     time.Time
	hasTS  bool
	pair   string
	side   string
	pos    string
	price  float64
	amount float64
	fee    float64
}

// normalize coerces raw trades into canonical fills and orders them by
// timestamp, ascending. The sort is stable so ties keep their input order;
// fills whose timestamp cannot be parsed sort first, also in input order.
// Malformed numeric fields coerce to zero rather than dropping the trade,
// which keeps the running totals defined for every record.
func normalize(trades []Trade) []fill {
	fills := make([]fill, 0, len(trades))
	for i, t := range trades {
		f := fill{
			pair:   t.Pair,
			side:   strings.ToUpper(strings.TrimSpace(t.Type)),
			pos:    strings.ToUpper(strings.TrimSpace(t.Position)),
			price:  toFloat(t.Price),
			amount: toFloat(t.Amount),
			fee:    toFloat(t.FeeInQuote),
		}
		if ts, ok := parseTimestamp(t.Timestamp); ok {
			f.ts = ts
			f.hasTS = true
		} else if t.Timestamp != nil {
			log.Debug().Int("index", i).Interface("timestamp", t.Timestamp).
				Msg("Trade timestamp not parseable, excluded from cumulative series")
		}
		fills = append(fills, f)
	}

	sort.SliceStable(fills, func(i, j int) bool {
		if fills[i].hasTS != fills[j].hasTS {
			return !fills[i].hasTS
		}
		return fills[i].ts.Before(fills[j].ts)
	})
	return fills
}

// toFloat coerces a loosely typed numeric field. Anything unparseable counts
// as zero.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			log.Debug().Str("value", n).Msg("Malformed numeric field, coerced to zero")
			return 0
		}
		return f
	case nil:
		return 0
	default:
		log.Debug().Interface("value", v).Msg("Unsupported numeric type, coerced to zero")
		return 0
	}
}

// Timestamp layouts accepted from the backend besides raw epochs. A trailing
// "Z" is UTC; layouts without an offset are taken as local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp accepts epoch seconds or milliseconds (values above 1e12 are
// milliseconds), ISO-8601 strings with either "T" or space separators, or an
// already-parsed time.Time. The result is in local time for sorting and
// display.
func parseTimestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case time.Time:
		return ts.Local(), true
	case float64:
		return epochToTime(ts), true
	case float32:
		return epochToTime(float64(ts)), true
	case int:
		return epochToTime(float64(ts)), true
	case int64:
		return epochToTime(float64(ts)), true
	case string:
		s := strings.TrimSpace(ts)
		if s == "" {
			return time.Time{}, false
		}
		if epoch, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToTime(epoch), true
		}
		for _, layout := range timestampLayouts {
			if strings.Contains(layout, "Z07:00") {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Local(), true
				}
			} else if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func epochToTime(epoch float64) time.Time {
	if epoch > 1e12 {
		epoch /= 1000 // milliseconds
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
