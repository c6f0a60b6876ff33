// Package proc defines the process control block and the fixed-capacity
// process table. Lifecycle follows
// Unused → Embryo → Runnable → Running → {Runnable | Sleeping → Runnable | Zombie} → Unused;
// the multilevel-queue level is an orthogonal axis owned entirely by the
// scheduler. Queue membership is index-based into the table arena – no
// aliased pointers, an unlinked entry is marked with the None sentinel.
package proc
