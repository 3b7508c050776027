package xos

import (
	"errors"
	"testing"
)

func TestErrsDedup(t *testing.T) {
	var e Errs
	e.Add(errors.New("boom"))
	e.Add(errors.New("boom"))
	e.Add(errors.New("bang"))

	if got := e.Cnt(); got != 2 {
		t.Fatalf("expected 2 distinct errors, got %d", got)
	}
	if s := e.Error(); s == "" {
		t.Fatal("expected non-empty aggregate error string")
	}
}

func TestErrsBound(t *testing.T) {
	var e Errs
	for i := 0; i < maxErrs+10; i++ {
		e.Add(errors.New(string(rune('a' + i))))
	}
	if got := e.Cnt(); got != maxErrs {
		t.Fatalf("expected bounded at %d, got %d", maxErrs, got)
	}
}

func TestStopChIdempotentClose(t *testing.T) {
	var sc StopCh
	sc.Init()
	sc.Close()
	sc.Close() // must not panic

	select {
	case <-sc.Listen():
	default:
		t.Fatal("expected closed channel to be immediately readable")
	}
}

func TestGenSessionID(t *testing.T) {
	a := GenSessionID()
	b := GenSessionID()
	if a == b {
		t.Fatal("expected distinct session IDs")
	}
	if len(a) == 0 {
		t.Fatal("expected non-empty session ID")
	}
}

func TestHashSessionKeyStable(t *testing.T) {
	if HashSessionKey("node-1:trname") != HashSessionKey("node-1:trname") {
		t.Fatal("expected deterministic hash for the same key")
	}
}
