// Package gokern provides the resource-management core of a teaching
// kernel: a multilevel-feedback-queue process scheduler and a
// synchronized, write-back LRU buffer cache over pluggable block
// devices.
//
// The two subsystems come with pluggable service layers such as:
//
//   - scheduler – MLFQ process scheduling with boost, aging and self-pin
//   - bcache    – fixed-arena buffer cache with WAL-backed write-back
//   - disk      – block device vendors (memory, afs file system)
//   - wal       – write-ahead log the cache flushes dirty blocks to
//   - event     – typed kernel event bus (process transitions, evictions)
//
// Gokern is designed to be embedded in host applications. End-users
// typically interact with the kernel via the high-level Service façade
// exposed by the root package:
//
//	srv, _ := gokern.New()
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	p, _ := rt.Spawn(ctx, "init")
//	b, _ := rt.Read(ctx, 0, 17)
//	rt.Release(b)
//	_ = rt.Shutdown(ctx)
//
// For more details see the individual sub-packages.
package gokern
