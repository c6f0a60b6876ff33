package scheduler

import (
	"context"
	"fmt"

	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/policy"
)

// Pin grants p a self-pin token with the given tick budget: while the
// budget lasts, timer preemption of p is suppressed. The request is
// evaluated against the pin policy (from the scheduler option or ctx)
// and clamped to the policy's cap. A pinned process that blocks or
// yields keeps its remaining budget; the kernel never revokes a grant.
func (s *Service) Pin(ctx context.Context, p *proc.Proc, ticks int) error {
	if ticks <= 0 {
		return fmt.Errorf("scheduler: pin budget must be > 0")
	}
	pol := s.pinPolicy
	if fromCtx := policy.FromContext(ctx); fromCtx != nil {
		pol = fromCtx
	}
	if !pol.IsAllowed(p.Name) {
		return fmt.Errorf("scheduler: pin denied for %q by policy", p.Name)
	}
	if pol != nil {
		switch pol.Mode {
		case policy.ModeDeny:
			return fmt.Errorf("scheduler: pin denied for %q by policy", p.Name)
		case policy.ModeAsk:
			if pol.Ask == nil || !pol.Ask(ctx, p.Name, ticks, pol) {
				return fmt.Errorf("scheduler: pin request for %q rejected", p.Name)
			}
		}
	}
	if limit := pol.Cap(); ticks > limit {
		ticks = limit
	}

	s.table.Lock()
	defer s.table.Unlock()
	if p.State != proc.StateRunning {
		return fmt.Errorf("scheduler: pid %d is not running", p.Pid)
	}
	p.PinTicks = ticks
	return nil
}

// Unpin releases the self-pin token early; normal preemption resumes at
// the next tick.
func (s *Service) Unpin(p *proc.Proc) {
	s.table.Lock()
	defer s.table.Unlock()
	p.PinTicks = 0
}
