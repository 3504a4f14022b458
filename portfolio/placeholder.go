package portfolio

import (
	"time"

	"github.com/jrsteele09/go-kite-session/kite"
)

// placeholderAsOf stamps placeholder orders so repeated responses are identical
var placeholderAsOf = time.Date(2024, time.June, 25, 9, 15, 0, 0, time.UTC)

// placeholderEstimates are the documented stand-ins for figures the feed cannot supply
var placeholderEstimates = Estimates{
	RealizedPnL:            5000,
	PortfolioTurnover:      1.2,
	LiquidityScore:         85.5,
	ExecutionQualityRating: 4.2,
	SlippagePercent:        0.15,
	HoldingPeriodAvgDays:   120,
}

// placeholderHoldings is a small fixed book spanning every segment. P&L is
// (last - average) * quantity so the derived figures agree with each other.
var placeholderHoldings = []kite.Holding{
	{
		TradingSymbol: "RELIANCE", Exchange: "NSE", InstrumentToken: 738561, ISIN: "INE002A01018", Product: "CNC",
		Quantity: 50, AveragePrice: 1250.50, LastPrice: 1350.00, ClosePrice: 1340.00, PnL: 4975.00,
	},
	{
		TradingSymbol: "INFY", Exchange: "BSE", InstrumentToken: 128053508, ISIN: "INE009A01021", Product: "CNC",
		Quantity: 30, AveragePrice: 1420.00, LastPrice: 1510.00, ClosePrice: 1498.50, PnL: 2700.00,
	},
	{
		TradingSymbol: "NIFTY24JUNFUT", Exchange: "NFO", InstrumentToken: 13368834, Product: "NRML",
		Quantity: 25, AveragePrice: 23150.00, LastPrice: 23290.00, ClosePrice: 23210.00, PnL: 3500.00,
	},
	{
		TradingSymbol: "NIFTY24JUN23500CE", Exchange: "NFO", InstrumentToken: 13374722, Product: "NRML",
		Quantity: 50, AveragePrice: 112.40, LastPrice: 98.60, ClosePrice: 104.20, PnL: -690.00,
	},
	{
		TradingSymbol: "BANKNIFTY24JUN49000PE", Exchange: "NFO", InstrumentToken: 13420802, Product: "NRML",
		Quantity: 15, AveragePrice: 310.00, LastPrice: 352.00, ClosePrice: 340.00, PnL: 630.00,
	},
}

// Placeholder returns the metrics served when live data is unavailable. It depends only
// on the query, never on time or chance.
func Placeholder(q Query) Metrics {
	holdings := make([]kite.Holding, len(placeholderHoldings))
	copy(holdings, placeholderHoldings)
	return Derive(holdings, q.Segment, q.Details, placeholderEstimates, placeholderAsOf)
}
