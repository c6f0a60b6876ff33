package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowOverride(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	original := NowFunc
	defer func() { NowFunc = original }()

	NowFunc = func() time.Time { return fixed }
	assert.Equal(t, fixed, Now())
}

func TestTickerOverride(t *testing.T) {
	ticks := make(chan time.Time, 1)
	stopped := false
	original := TickerFunc
	defer func() { TickerFunc = original }()

	TickerFunc = func(period time.Duration) (<-chan time.Time, func()) {
		return ticks, func() { stopped = true }
	}

	c, stop := Ticker(time.Second)
	ticks <- time.Now()
	select {
	case <-c:
	default:
		t.Fatal("stubbed tick not delivered")
	}
	stop()
	assert.True(t, stopped)
}

func TestTickerDelivers(t *testing.T) {
	c, stop := Ticker(time.Millisecond)
	defer stop()
	select {
	case <-c:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
}
