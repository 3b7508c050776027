//go:build !debug

// Package xdebug provides build-tag gated invariant assertions.
//
// Ported from the teacher's cmn/debug: in release builds (the default)
// every assertion is a no-op, so the invariants named throughout
// spec.md §3/§4 cost nothing in production; build with -tags debug to
// turn them into panics during development and tests.
package xdebug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
func AssertFunc(_ func() bool, _ ...any) {}
