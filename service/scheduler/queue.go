package scheduler

import (
	"github.com/viant/gokern/model/proc"
)

// Every function in this file assumes the table lock is held.

// enqueue links p into its level queue. Levels 0 and 1 append at the
// tail; level 2 inserts in descending priority order, FIFO among equals.
// Enqueuing a process that is already queued is a fatal invariant
// violation.
func (s *Service) enqueue(p *proc.Proc) {
	if p.Enqueued {
		panic("scheduler: process already enqueued")
	}
	p.Enqueued = true
	p.Next = proc.None
	p.WaitTicks = 0

	q := &s.queues[p.Level]
	if p.Level < proc.MaxLevel {
		if q.tail == proc.None {
			q.head, q.tail = p.Index, p.Index
		} else {
			s.table.At(q.tail).Next = p.Index
			q.tail = p.Index
		}
		return
	}

	// Level 2: walk to the first entry with a strictly lower priority so
	// equal priorities keep arrival order.
	prev := proc.None
	for i := q.head; i != proc.None; i = s.table.At(i).Next {
		if s.table.At(i).Priority < p.Priority {
			break
		}
		prev = i
	}
	if prev == proc.None {
		p.Next = q.head
		q.head = p.Index
	} else {
		p.Next = s.table.At(prev).Next
		s.table.At(prev).Next = p.Index
	}
	if p.Next == proc.None {
		q.tail = p.Index
	}
}

// dequeue unlinks and returns the head of the given level queue, or nil
// when the queue is empty.
func (s *Service) dequeue(level int) *proc.Proc {
	q := &s.queues[level]
	if q.head == proc.None {
		return nil
	}
	p := s.table.At(q.head)
	q.head = p.Next
	if q.head == proc.None {
		q.tail = proc.None
	}
	p.Next = proc.None
	p.Enqueued = false
	return p
}

// remove unlinks p from its level queue wherever it sits.
func (s *Service) remove(p *proc.Proc) {
	if !p.Enqueued {
		return
	}
	q := &s.queues[p.Level]
	prev := proc.None
	for i := q.head; i != proc.None; i = s.table.At(i).Next {
		if i == p.Index {
			if prev == proc.None {
				q.head = p.Next
			} else {
				s.table.At(prev).Next = p.Next
			}
			if q.tail == p.Index {
				q.tail = prev
			}
			p.Next = proc.None
			p.Enqueued = false
			return
		}
		prev = i
	}
	panic("scheduler: enqueued process missing from its level queue")
}

// queueLen returns the number of processes queued at the given level.
func (s *Service) queueLen(level int) int {
	n := 0
	for i := s.queues[level].head; i != proc.None; i = s.table.At(i).Next {
		n++
	}
	return n
}
