package portfolio

import (
	"strings"

	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/jrsteele09/go-kite-session/kite"
)

// Segment narrows holdings to one market segment. The zero value selects everything.
type Segment string

const (
	SegmentAll     Segment = ""
	SegmentEquity  Segment = "equity"
	SegmentFutures Segment = "futures"
	SegmentOptions Segment = "options"
)

const productNormal = "NRML"

// ParseSegment accepts an empty string or one of the named segments
func ParseSegment(s string) (Segment, error) {
	switch seg := Segment(s); seg {
	case SegmentAll, SegmentEquity, SegmentFutures, SegmentOptions:
		return seg, nil
	default:
		return "", apperrors.Public(apperrors.ErrBadRequest, "Invalid segment. Must be one of: equity, futures, options")
	}
}

// Matches reports whether h belongs to the segment
func (s Segment) Matches(h kite.Holding) bool {
	switch s {
	case SegmentEquity:
		return h.Exchange == "NSE" || h.Exchange == "BSE"
	case SegmentFutures:
		return h.Product == productNormal && strings.Contains(h.TradingSymbol, "FUT")
	case SegmentOptions:
		return h.Product == productNormal && (strings.Contains(h.TradingSymbol, "CE") || strings.Contains(h.TradingSymbol, "PE"))
	default:
		return true
	}
}

// Filter returns the holdings in the segment, preserving order
func Filter(holdings []kite.Holding, s Segment) []kite.Holding {
	if s == SegmentAll {
		return holdings
	}
	out := make([]kite.Holding, 0, len(holdings))
	for _, h := range holdings {
		if s.Matches(h) {
			out = append(out, h)
		}
	}
	return out
}
