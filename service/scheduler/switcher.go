package scheduler

import (
	"context"

	"github.com/viant/gokern/model/proc"
)

// Switcher runs a selected process until it gives up the CPU. Run
// returns when the process yields voluntarily, blocks, exits, or when
// the preempt channel fires. The scheduler does not interpret how the
// process spends its slice; it only reacts to the process state the
// Switcher leaves behind.
type Switcher interface {
	Run(ctx context.Context, p *proc.Proc, preempt <-chan struct{}) error
}

// idleSwitcher holds the CPU until preemption or context cancellation.
// It stands in for real process execution in tests and simulations.
type idleSwitcher struct{}

func (idleSwitcher) Run(ctx context.Context, _ *proc.Proc, preempt <-chan struct{}) error {
	select {
	case <-preempt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SwitcherFunc adapts a function to the Switcher interface.
type SwitcherFunc func(ctx context.Context, p *proc.Proc, preempt <-chan struct{}) error

func (f SwitcherFunc) Run(ctx context.Context, p *proc.Proc, preempt <-chan struct{}) error {
	return f(ctx, p, preempt)
}
