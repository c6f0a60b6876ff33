// Package scheduler implements the multilevel-feedback-queue process
// scheduler. Three level queues hold runnable processes – levels 0 and 1
// are FIFO, level 2 is priority-ordered with aging. A running process
// consumes one quantum tick per timer interrupt; quantum exhaustion
// requeues it and charges its allotment, allotment exhaustion demotes it
// one level (clamped at the lowest), and a periodic global boost lifts
// every non-running process back to level 0 so nothing starves. All queue
// mutation happens under the process table's single lock, so scheduling
// decisions across levels are globally serialised.
package scheduler
