// Package policy provides a simple, optional approval layer for the
// scheduler self-pin token that can be attached to a kernel run via
// context. It is deliberately decoupled from the scheduler so that using
// it is entirely opt-in – schedulers that do not embed a Policy keep the
// default "allow with capped budget" behaviour.
package policy

import (
	"context"
	"strings"
)

// Pin modes recognised by the scheduler.
const (
	ModeAsk   = "ask"   // ask before every pin request
	ModeAllow = "allow" // grant automatically (default)
	ModeDeny  = "deny"  // refuse every pin request
)

// DefaultMaxPinTicks caps the self-pin budget when a Policy does not set
// its own. The kernel never revokes an active pin; the cap only bounds
// what a single request may ask for.
const DefaultMaxPinTicks = 16

// AskFunc is invoked when Mode==ask. Returning true grants the pin, false
// rejects it. Implementations MAY mutate the policy (for example,
// switching to ModeAllow after the first grant).
type AskFunc func(
	ctx context.Context,
	name string, // process name
	ticks int, // requested pin budget
	p *Policy,
) bool

// Policy represents the pin-approval settings for the current kernel run.
//
//   - Mode controls the high-level behaviour (ask / allow / deny).
//   - AllowList, BlockList filter by process name regardless of Mode.
//   - MaxPinTicks bounds the budget of a single pin request.
//   - Ask is only used when Mode==ask.
//
// A nil *Policy means "grant every request up to DefaultMaxPinTicks" and
// is therefore the zero-cost default.
type Policy struct {
	Mode        string   // ask / allow / deny   (default = allow)
	AllowList   []string // whitelist (empty => all)
	BlockList   []string // blacklist
	MaxPinTicks int      // 0 => DefaultMaxPinTicks
	Ask         AskFunc  // used only when Mode==ask
}

// Config represents the declarative, serialisable part of a Policy (a
// Policy with AskFunc cannot be persisted).
type Config struct {
	Mode        string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList   []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList   []string `json:"block,omitempty" yaml:"block,omitempty"`
	MaxPinTicks int      `json:"maxPinTicks,omitempty" yaml:"maxPinTicks,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:        p.Mode,
		AllowList:   append([]string(nil), p.AllowList...),
		BlockList:   append([]string(nil), p.BlockList...),
		MaxPinTicks: p.MaxPinTicks,
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:        c.Mode,
		AllowList:   append([]string(nil), c.AllowList...),
		BlockList:   append([]string(nil), c.BlockList...),
		MaxPinTicks: c.MaxPinTicks,
	}
}

// Cap returns the effective per-request pin budget limit.
func (p *Policy) Cap() int {
	if p == nil || p.MaxPinTicks <= 0 {
		return DefaultMaxPinTicks
	}
	return p.MaxPinTicks
}

// IsAllowed evaluates AllowList / BlockList. Both lists match by exact,
// case-insensitive comparison of the process name.
func (p *Policy) IsAllowed(name string) bool {
	if p == nil {
		return true
	}

	normalized := strings.ToLower(name)

	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}

	// AllowList – if empty everything is allowed, otherwise only the
	// listed entries.
	if len(p.AllowList) == 0 {
		return true
	}

	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}

	return false
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts (*Policy, ok).
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
