package remote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relaykit/delegates/delegate"
	"github.com/relaykit/delegates/looptransport"
	"github.com/relaykit/delegates/remote"
	jsonser "github.com/relaykit/delegates/serializer/json"
)

const sumReceiverID = 7

// newSummingReceiver returns a Receiver with a single registration at
// sumReceiverID, summing its three (float64) arguments into *sum —
// json-iterator decodes numbers as float64, same as encoding/json. The
// sum itself never crosses back to the caller: only the ack frame does
// (spec.md §4.5/§6).
func newSummingReceiver(sum *float64) *remote.Receiver {
	r := remote.NewReceiver(jsonser.Serializer{})
	target := delegate.Free(func(a, b, c float64) {
		*sum = a + b + c
	})
	_ = r.Register(sumReceiverID, target, nil)
	return r
}

func TestDelegateInvokeRoundTrip(t *testing.T) {
	local, peer := looptransport.NewPair(4)
	defer local.Close()
	defer peer.Close()

	var sum float64
	peerDisp := remote.NewDispatcher(peer, jsonser.Serializer{}, newSummingReceiver(&sum), nil)
	defer peerDisp.Close()

	disp := remote.NewDispatcher(local, jsonser.Serializer{}, nil, nil)
	defer disp.Close()

	d := remote.Bind(disp, sumReceiverID, context.Background())
	out, err := d.Invoke(2.0, 3.0, 4.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("fire-and-forget invoke must return nil, got %v", out)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && sum != 9.0 {
		time.Sleep(time.Millisecond)
	}
	if sum != 9.0 {
		t.Fatalf("expected peer receiver to have computed 9.0, got %v", sum)
	}
}

func TestDispatcherCallTimesOutWithNoPeer(t *testing.T) {
	local, peer := looptransport.NewPair(4)
	defer local.Close()
	defer peer.Close()
	// No receiver/dispatcher on the peer side: nothing will ever reply.

	disp := remote.NewDispatcher(local, jsonser.Serializer{}, nil, nil)
	defer disp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d := remote.Bind(disp, sumReceiverID, ctx)
	_, err := d.Invoke(1.0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, remote.ErrNoReply) {
		t.Fatalf("expected remote.ErrNoReply, got %v", err)
	}
}

func TestDispatcherCloseFailsInFlightCalls(t *testing.T) {
	local, peer := looptransport.NewPair(4)
	defer local.Close()
	defer peer.Close()

	disp := remote.NewDispatcher(local, jsonser.Serializer{}, nil, nil)
	d := remote.Bind(disp, sumReceiverID, context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := d.Invoke(1.0)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	disp.Close()

	select {
	case err := <-done:
		if err != remote.ErrClosed {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Invoke never returned after Close")
	}
}

func TestReceiverRejectsReentrantCall(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	target := delegate.Free(func() {
		entered <- struct{}{}
		<-release
	})
	r := remote.NewReceiver(jsonser.Serializer{})
	if err := r.Register(1, target, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- r.Handle(1, mustMarshal(t)) }()
	<-entered

	if err := r.Handle(1, mustMarshal(t)); err == nil {
		t.Fatal("expected busy-receiver error on re-entrant call")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first call should have succeeded, got %v", err)
	}
}

func mustMarshal(t *testing.T) []byte {
	t.Helper()
	body, err := jsonser.Serializer{}.Marshal(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

