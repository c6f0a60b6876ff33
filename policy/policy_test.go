package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilPolicyAllowsWithDefaultCap(t *testing.T) {
	var p *Policy
	assert.True(t, p.IsAllowed("anything"))
	assert.Equal(t, DefaultMaxPinTicks, p.Cap())
}

func TestBlockListWinsOverAllowList(t *testing.T) {
	p := &Policy{
		AllowList: []string{"backup", "logger"},
		BlockList: []string{"Backup"},
	}
	assert.False(t, p.IsAllowed("backup"), "block list has priority, case-insensitive")
	assert.True(t, p.IsAllowed("logger"))
	assert.False(t, p.IsAllowed("stranger"), "non-empty allow list excludes the rest")
}

func TestEmptyAllowListAllowsAll(t *testing.T) {
	p := &Policy{BlockList: []string{"evil"}}
	assert.True(t, p.IsAllowed("anyone"))
	assert.False(t, p.IsAllowed("evil"))
}

func TestCap(t *testing.T) {
	assert.Equal(t, DefaultMaxPinTicks, (&Policy{}).Cap())
	assert.Equal(t, 4, (&Policy{MaxPinTicks: 4}).Cap())
}

func TestConfigRoundTrip(t *testing.T) {
	p := &Policy{
		Mode:        ModeDeny,
		AllowList:   []string{"a"},
		BlockList:   []string{"b"},
		MaxPinTicks: 7,
	}
	restored := FromConfig(ToConfig(p))
	assert.Equal(t, p.Mode, restored.Mode)
	assert.Equal(t, p.AllowList, restored.AllowList)
	assert.Equal(t, p.BlockList, restored.BlockList)
	assert.Equal(t, p.MaxPinTicks, restored.MaxPinTicks)

	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))
}

func TestContextHelpers(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	p := &Policy{Mode: ModeAllow}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}

func TestAskMode(t *testing.T) {
	granted := false
	p := &Policy{
		Mode: ModeAsk,
		Ask: func(ctx context.Context, name string, ticks int, pol *Policy) bool {
			granted = name == "trusted"
			return granted
		},
	}
	assert.True(t, p.Ask(context.Background(), "trusted", 4, p))
	assert.True(t, granted)
	assert.False(t, p.Ask(context.Background(), "other", 4, p))
}
