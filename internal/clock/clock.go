package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// TickerFunc returns a channel that delivers periodic timer interrupts and
// a stop function. Override in tests to drive ticks by hand.
var TickerFunc = func(period time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(period)
	return t.C, t.Stop
}

// Ticker is a thin wrapper around TickerFunc.
func Ticker(period time.Duration) (<-chan time.Time, func()) {
	return TickerFunc(period)
}
