package scheduler

import (
	"context"
	"log/slog"

	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/tracing"
)

// RunCore drives one core's scheduling loop until ctx is cancelled:
// pick, hand to the Switcher, requeue on return. A process the Switcher
// leaves Sleeping or Zombie is not requeued; one marked Killed while
// still Running is turned into a zombie here.
func (s *Service) RunCore(ctx context.Context, core int) error {
	for {
		p := s.Next(core)
		if p == nil {
			select {
			case <-s.runnable:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		s.drainResched(core)
		runCtx, span := tracing.StartSpan(ctx, "scheduler.slice", "INTERNAL")
		err := s.switcher.Run(runCtx, p, s.resched[core])
		tracing.EndSpan(span, err)
		if err != nil && ctx.Err() != nil {
			s.Yield(core, p)
			return ctx.Err()
		}
		if err != nil {
			slog.Warn("switcher error", "pid", p.Pid, "error", err)
		}

		if p.Killed && p.State == proc.StateRunning {
			s.Exit(ctx, p)
			continue
		}
		switch p.State {
		case proc.StateSleeping, proc.StateZombie, proc.StateUnused:
			// Parked or reaped while running; nothing to requeue.
		default:
			s.Yield(core, p)
		}
	}
}

// drainResched clears a stale preemption signal left over from the
// previous slice on this core.
func (s *Service) drainResched(core int) {
	select {
	case <-s.resched[core]:
	default:
	}
}
