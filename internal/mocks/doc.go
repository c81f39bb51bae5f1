// Package mocks provides test doubles for the store and platform
// interfaces. The Memory* types are stateful in-memory implementations
// with real semantics; the Mock* types are configurable stubs with
// per-method override functions.
package mocks
