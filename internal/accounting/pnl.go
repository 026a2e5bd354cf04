package accounting

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Mode selects which accounting regime applies to a trade set.
type Mode int

const (
	// ModeAverageCost is weighted-average-cost inventory accounting, used for
	// spot and market-making fills that carry no OPEN/CLOSE tagging.
	ModeAverageCost Mode = iota
	// ModeOpenClose is directional position accounting for perpetual futures,
	// where every fill is tagged as opening or closing a position.
	ModeOpenClose
)

func (m Mode) String() string {
	if m == ModeOpenClose {
		return "open_close"
	}
	return "average_cost"
}

// Point is one snapshot of the running total PnL, taken after each trade with
// a parseable timestamp. The sequence drives equity-curve rendering.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	PnL       float64   `json:"pnl"`
	Pair      string    `json:"trading_pair"`
}

// OpenPosition describes inventory or a position left open after the tape
// ends. Direction is +1 long, -1 short, 0 for untagged spot inventory.
type OpenPosition struct {
	Amount    float64 `json:"amount"`
	AvgEntry  float64 `json:"avg_entry_price"`
	Direction int     `json:"direction"`
}

// Summary is the realized-PnL reconstruction for one trade tape. TotalPnL
// nets realized PnL against the fees of realizing trades only; TotalFees
// covers every trade. PnLByPair holds only pairs that realized at least once.
type Summary struct {
	Mode          Mode                    `json:"mode"`
	TotalPnL      float64                 `json:"total_pnl"`
	TotalFees     float64                 `json:"total_fees"`
	TotalVolume   float64                 `json:"total_volume"`
	PnLByPair     map[string]float64      `json:"pnl_by_pair"`
	CumulativePnL []Point                 `json:"cumulative_pnl"`
	OpenPositions map[string]OpenPosition `json:"open_positions,omitempty"`
}

func newSummary(mode Mode) Summary {
	return Summary{
		Mode:          mode,
		PnLByPair:     make(map[string]float64),
		CumulativePnL: make([]Point, 0),
		OpenPositions: make(map[string]OpenPosition),
	}
}

// point appends a cumulative-PnL snapshot for fills that carry a timestamp.
func (s *Summary) point(f fill) {
	if f.hasTS {
		s.CumulativePnL = append(s.CumulativePnL, Point{Timestamp: f.ts, PnL: s.TotalPnL, Pair: f.pair})
	}
}

// DetectMode inspects the distinct position tags in a trade set. Any OPEN or
// CLOSE tag selects open/close accounting; everything else, including a mix
// of NIL and blank tags, falls back to average-cost.
func DetectMode(trades []Trade) Mode {
	for _, t := range trades {
		switch strings.ToUpper(strings.TrimSpace(t.Position)) {
		case PositionOpen, PositionClose:
			return ModeOpenClose
		}
	}
	return ModeAverageCost
}

// CalculatePnL normalizes and orders the trade tape, picks the accounting
// regime from its position tags, and runs the matching engine. An empty tape
// returns a zeroed summary.
func CalculatePnL(trades []Trade) Summary {
	if len(trades) == 0 {
		return newSummary(ModeAverageCost)
	}

	fills := normalize(trades)
	mode := detectMode(fills)

	log.Debug().Int("trades", len(fills)).Stringer("mode", mode).Msg("Reconstructing PnL")

	if mode == ModeOpenClose {
		return openClosePnL(fills)
	}
	return averageCostPnL(fills)
}

func detectMode(fills []fill) Mode {
	for _, f := range fills {
		if f.pos == PositionOpen || f.pos == PositionClose {
			return ModeOpenClose
		}
	}
	return ModeAverageCost
}

// inventory is the running average-cost book for one pair. totalCost/amount
// is the weighted average entry price while amount > 0; both fields scale
// down together and never go negative.
type inventory struct {
	amount    float64
	totalCost float64
}

func averageCostPnL(fills []fill) Summary {
	sum := newSummary(ModeAverageCost)
	inv := make(map[string]*inventory)

	for _, f := range fills {
		sum.TotalVolume += f.price * f.amount
		sum.TotalFees += f.fee

		switch f.side {
		case SideBuy:
			e := inv[f.pair]
			if e == nil {
				e = &inventory{}
				inv[f.pair] = e
			}
			e.amount += f.amount
			e.totalCost += f.price * f.amount

		case SideSell:
			e := inv[f.pair]
			if e == nil || e.amount <= 0 {
				// Nothing held: no cost basis to realize against, only the
				// fee hits the total. The pair map stays untouched.
				sum.TotalPnL -= f.fee
				break
			}
			avgCost := e.totalCost / e.amount
			// Only realize against what is actually held; an oversized sell
			// does not open a short.
			sellAmount := math.Min(f.amount, e.amount)
			realized := (f.price-avgCost)*sellAmount - f.fee
			sum.TotalPnL += realized
			sum.PnLByPair[f.pair] += realized

			if sellAmount >= e.amount {
				e.amount = 0
				e.totalCost = 0
			} else {
				// Proportional scaling keeps totalCost/amount equal to the
				// average cost under float error.
				remain := 1 - sellAmount/e.amount
				e.amount *= remain
				e.totalCost *= remain
			}
		}

		sum.point(f)
	}

	for pair, e := range inv {
		if e.amount > 0 {
			sum.OpenPositions[pair] = OpenPosition{Amount: e.amount, AvgEntry: e.totalCost / e.amount}
		}
	}
	return sum
}

// position is the running book for one pair under open/close accounting.
// direction follows the trade type of the most recent OPEN; pyramiding opens
// of the same direction accumulate into a single book, there are no lots.
type position struct {
	amount    float64
	totalCost float64
	direction int
}

func openClosePnL(fills []fill) Summary {
	sum := newSummary(ModeOpenClose)
	positions := make(map[string]*position)

	for _, f := range fills {
		sum.TotalVolume += f.price * f.amount
		sum.TotalFees += f.fee

		switch f.pos {
		case PositionOpen:
			p := positions[f.pair]
			if p == nil {
				p = &position{}
				positions[f.pair] = p
			}
			p.amount += f.amount
			p.totalCost += f.price * f.amount
			if f.side == SideBuy {
				p.direction = 1
			} else {
				p.direction = -1
			}

		case PositionClose:
			p := positions[f.pair]
			if p == nil || p.amount <= 0 {
				// Close with nothing open: fee and volume were already
				// counted above, nothing to realize.
				log.Debug().Str("pair", f.pair).Msg("CLOSE without open position, skipped")
				break
			}
			avgEntry := p.totalCost / p.amount
			var realized float64
			if f.side == SideSell {
				realized = (f.price - avgEntry) * f.amount // closing a long
			} else {
				realized = (avgEntry - f.price) * f.amount // closing a short
			}
			realized -= f.fee
			sum.TotalPnL += realized
			sum.PnLByPair[f.pair] += realized

			if f.amount >= p.amount {
				delete(positions, f.pair)
			} else {
				remain := 1 - f.amount/p.amount
				p.amount *= remain
				p.totalCost *= remain
			}
		}

		sum.point(f)
	}

	for pair, p := range positions {
		if p.amount > 0 {
			sum.OpenPositions[pair] = OpenPosition{
				Amount:    p.amount,
				AvgEntry:  p.totalCost / p.amount,
				Direction: p.direction,
			}
		}
	}
	return sum
}
