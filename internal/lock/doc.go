// Package lock provides the two mutual-exclusion primitives the resource
// core is built on: Spin for short metadata sections and Sleep for payload
// sections that may span blocking I/O. The ordering discipline is fixed –
// a Spin lock guarding pool metadata is always released before the caller
// blocks on a Sleep lock, which rules out lock-order inversion between the
// two. It lives under `internal` because callers should not rely on the
// exact implementation.
package lock
