// Package tracing integrates observability back-ends with the kernel
// resource core to provide span information for cache operations and
// scheduler events. All instrumentation is kept in a separate package so
// that applications which do not require tracing can exclude it from
// their build.
package tracing
