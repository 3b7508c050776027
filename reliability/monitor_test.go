package reliability

import (
	"testing"
	"time"

	"github.com/relaykit/delegates/telemetry"
)

func TestMonitorAckRemovesOutstanding(t *testing.T) {
	m := NewMonitor(telemetry.NewMock())
	m.Track(1, time.Hour, nil)
	if m.Outstanding() != 1 {
		t.Fatalf("expected 1 outstanding, got %d", m.Outstanding())
	}
	m.Ack(1)
	if m.Outstanding() != 0 {
		t.Fatalf("expected 0 outstanding after ack, got %d", m.Outstanding())
	}
}

func TestMonitorDoubleAckIsNoOp(t *testing.T) {
	m := NewMonitor(nil)
	m.Track(1, time.Hour, nil)
	m.Ack(1)
	m.Ack(1) // must not panic or go negative
	if m.Outstanding() != 0 {
		t.Fatalf("expected 0 outstanding, got %d", m.Outstanding())
	}
}

func TestMonitorProcessFiresTimeout(t *testing.T) {
	m := NewMonitor(nil)
	fired := make(chan uint16, 1)
	m.Track(5, time.Millisecond, func(seq uint16) { fired <- seq })

	time.Sleep(5 * time.Millisecond)
	m.Process()

	select {
	case seq := <-fired:
		if seq != 5 {
			t.Fatalf("expected seq 5, got %d", seq)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout callback never fired")
	}
	if m.Outstanding() != 0 {
		t.Fatalf("expected timed-out entry removed, got %d outstanding", m.Outstanding())
	}
}

func TestMonitorAckBeforeTimeoutPreventsFire(t *testing.T) {
	m := NewMonitor(nil)
	fired := false
	m.Track(9, time.Hour, func(uint16) { fired = true })
	m.Ack(9)
	m.Process()
	if fired {
		t.Fatal("acked call must not fire its timeout callback")
	}
}
