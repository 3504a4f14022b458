package portfolio

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jrsteele09/go-kite-session/kite"
	"github.com/shopspring/decimal"
)

// Margin is a fixed share of market value, split between span and exposure margin.
var (
	marginRate   = decimal.RequireFromString("0.20")
	spanRate     = decimal.RequireFromString("0.12")
	exposureRate = decimal.RequireFromString("0.08")
	hundred      = decimal.NewFromInt(100)
)

// Metrics is the portfolio summary. Live and placeholder responses share this schema.
type Metrics struct {
	HoldingQuantity        int64           `json:"holding_quantity"`
	AvgBuyPrice            float64         `json:"avg_buy_price"`
	CurrentMarketValue     float64         `json:"current_market_value"`
	UnrealizedPnL          float64         `json:"unrealized_pnl"`
	RealizedPnL            float64         `json:"realized_pnl"`
	PnLPercent             float64         `json:"pnl_percent"`
	AssetAllocationPercent float64         `json:"asset_allocation_percent"`
	PortfolioTurnover      float64         `json:"portfolio_turnover"`
	MarginUtilized         float64         `json:"margin_utilized"`
	MarginBreakdown        MarginBreakdown `json:"margin_breakdown"`
	OrderHistory           []Order         `json:"order_history"`
	TimeInMarket           int             `json:"time_in_market"`
	LiquidityScore         float64         `json:"liquidity_score"`
	HoldingPeriodAvgDays   int             `json:"holding_period_avg_days"`
	ExecutionQualityRating float64         `json:"execution_quality_rating"`
	SlippagePercent        float64         `json:"slippage_percent"`
}

type MarginBreakdown struct {
	Span     float64 `json:"span"`
	Exposure float64 `json:"exposure"`
}

// Order is a synthesized buy order for one holding, shown when details are requested
type Order struct {
	OrderID         string    `json:"order_id"`
	TradingSymbol   string    `json:"tradingsymbol"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int64     `json:"quantity"`
	Price           float64   `json:"price"`
	OrderTimestamp  time.Time `json:"order_timestamp"`
	Status          string    `json:"status"`
}

// Estimates are the figures a holdings feed cannot supply
type Estimates struct {
	RealizedPnL            float64
	PortfolioTurnover      float64
	LiquidityScore         float64
	ExecutionQualityRating float64
	SlippagePercent        float64
	HoldingPeriodAvgDays   int
}

type totals struct {
	quantity int64
	value    decimal.Decimal
	cost     decimal.Decimal
	pnl      decimal.Decimal
}

func sum(holdings []kite.Holding) totals {
	t := totals{value: decimal.Zero, cost: decimal.Zero, pnl: decimal.Zero}
	for _, h := range holdings {
		qty := decimal.NewFromInt(h.Quantity)
		t.quantity += h.Quantity
		t.value = t.value.Add(decimal.NewFromFloat(h.LastPrice).Mul(qty))
		t.cost = t.cost.Add(decimal.NewFromFloat(h.AveragePrice).Mul(qty))
		t.pnl = t.pnl.Add(decimal.NewFromFloat(h.PnL))
	}
	return t
}

// Derive computes metrics for the holdings in segment. all is the unfiltered holdings
// list and is only used for the allocation share. Orders are stamped with asOf.
func Derive(all []kite.Holding, segment Segment, details bool, est Estimates, asOf time.Time) Metrics {
	selected := Filter(all, segment)
	seg := sum(selected)
	total := sum(all)

	m := Metrics{
		HoldingQuantity:    seg.quantity,
		CurrentMarketValue: money(seg.value),
		UnrealizedPnL:      money(seg.pnl),
		RealizedPnL:        est.RealizedPnL,
		PortfolioTurnover:  est.PortfolioTurnover,
		MarginUtilized:     money(seg.value.Mul(marginRate)),
		MarginBreakdown: MarginBreakdown{
			Span:     money(seg.value.Mul(spanRate)),
			Exposure: money(seg.value.Mul(exposureRate)),
		},
		OrderHistory:           []Order{},
		TimeInMarket:           est.HoldingPeriodAvgDays,
		LiquidityScore:         est.LiquidityScore,
		HoldingPeriodAvgDays:   est.HoldingPeriodAvgDays,
		ExecutionQualityRating: est.ExecutionQualityRating,
		SlippagePercent:        est.SlippagePercent,
	}

	if seg.quantity > 0 {
		m.AvgBuyPrice = money(seg.cost.Div(decimal.NewFromInt(seg.quantity)))
	}
	if seg.cost.IsPositive() {
		m.PnLPercent = money(seg.pnl.Div(seg.cost).Mul(hundred))
	}
	if total.value.IsPositive() {
		m.AssetAllocationPercent = money(seg.value.Div(total.value).Mul(hundred))
	}

	if details {
		for _, h := range selected {
			m.OrderHistory = append(m.OrderHistory, Order{
				OrderID:         "holding_" + strconv.FormatInt(h.InstrumentToken, 10),
				TradingSymbol:   h.TradingSymbol,
				TransactionType: "BUY",
				Quantity:        h.Quantity,
				Price:           h.AveragePrice,
				OrderTimestamp:  asOf.UTC(),
				Status:          "COMPLETE",
			})
		}
	}

	return m
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// tolerance absorbs the two-decimal rounding applied to every reported figure
const tolerance = 0.02

// Validate checks that a Metrics value is complete and internally consistent.
func Validate(m Metrics) error {
	switch {
	case m.HoldingQuantity < 0:
		return fmt.Errorf("holding_quantity is negative: %d", m.HoldingQuantity)
	case m.CurrentMarketValue < 0:
		return fmt.Errorf("current_market_value is negative: %.2f", m.CurrentMarketValue)
	case m.AssetAllocationPercent < 0 || m.AssetAllocationPercent > 100:
		return fmt.Errorf("asset_allocation_percent out of range: %.2f", m.AssetAllocationPercent)
	case m.OrderHistory == nil:
		return fmt.Errorf("order_history is missing")
	case m.HoldingQuantity == 0 && m.CurrentMarketValue != 0:
		return fmt.Errorf("market value %.2f without holdings", m.CurrentMarketValue)
	}

	if !near(m.MarginBreakdown.Span+m.MarginBreakdown.Exposure, m.MarginUtilized) {
		return fmt.Errorf("margin breakdown %.2f + %.2f does not add up to %.2f",
			m.MarginBreakdown.Span, m.MarginBreakdown.Exposure, m.MarginUtilized)
	}

	cost := m.AvgBuyPrice * float64(m.HoldingQuantity)
	if cost > 0 {
		// avg_buy_price is rounded, so compare percentages relative to the cost it implies
		expected := m.UnrealizedPnL / cost * 100
		if math.Abs(expected-m.PnLPercent) > tolerance+math.Abs(expected)*0.001 {
			return fmt.Errorf("pnl_percent %.2f inconsistent with pnl %.2f on cost %.2f", m.PnLPercent, m.UnrealizedPnL, cost)
		}
	} else if m.PnLPercent != 0 {
		return fmt.Errorf("pnl_percent %.2f without cost basis", m.PnLPercent)
	}

	for i, o := range m.OrderHistory {
		if o.OrderID == "" || o.TradingSymbol == "" || o.Quantity <= 0 {
			return fmt.Errorf("order_history[%d] is incomplete", i)
		}
	}
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
