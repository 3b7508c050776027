// Command delegatedemo wires every layer of this module together end to
// end: a Signal broadcasting to a local subscriber, a blocking async call
// run on a worker pool, plus a remote delegate carried over an in-process
// transport with
// retry and reliability tracking, so the whole stack can be exercised
// by hand.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/relaykit/delegates/async"
	"github.com/relaykit/delegates/container"
	"github.com/relaykit/delegates/delegate"
	"github.com/relaykit/delegates/hk"
	"github.com/relaykit/delegates/internal/nlog"
	"github.com/relaykit/delegates/looptransport"
	"github.com/relaykit/delegates/reliability"
	"github.com/relaykit/delegates/remote"
	jsonser "github.com/relaykit/delegates/serializer/json"
	"github.com/relaykit/delegates/telemetry"
)

func main() {
	defer nlog.Flush()

	runSignalDemo()
	runAsyncDemo()
	runRemoteDemo()
}

func runSignalDemo() {
	sig := container.NewSignal()
	sub, _ := sig.Connect(delegate.Free(func(msg string) {
		nlog.Infof("signal subscriber received: %s", msg)
	}))
	defer sub.Disconnect()

	sig.Broadcast("hello from delegatedemo")
}

func runAsyncDemo() {
	pool := async.NewPool(2)
	defer pool.Close()

	square := delegate.Free(func(x int) int { return x * x })
	blocking := async.BindBlocking(square, pool, async.PriorityHigh, 2*time.Second)

	out, err := blocking.Invoke(9)
	if err != nil {
		nlog.Errorf("async blocking invoke failed: %v", err)
		return
	}
	fmt.Printf("async result: %v\n", out)
}

// sumReceiverID is the remote id the peer side registers its summing
// delegate under; the local side's remote.Delegate is bound to the
// same id so its invoke frames route there.
const sumReceiverID = 1

func runRemoteDemo() {
	local, peer := looptransport.NewPair(8)
	defer local.Close()
	defer peer.Close()

	// The peer side never returns its sum to the caller (spec.md
	// §4.5/§6): it only logs it, and the ack frame is the sender's only
	// feedback that the call was received and ran.
	receiveSum := delegate.Free(func(a, b, c float64) {
		nlog.Infof("remote peer computed sum: %v", a+b+c)
	})
	peerReceiver := remote.NewReceiver(jsonser.Serializer{})
	if err := peerReceiver.Register(sumReceiverID, receiveSum, nil); err != nil {
		nlog.Errorf("remote: register peer receiver: %v", err)
		return
	}
	peerDisp := remote.NewDispatcher(peer, jsonser.Serializer{}, peerReceiver, loggingErrorSink{})
	defer peerDisp.Close()

	tracker := telemetry.NewMock()
	monitor := reliability.NewMonitor(tracker)
	housekeeper := hk.New()
	go housekeeper.Run()
	defer housekeeper.Stop()
	housekeeper.Register("ack-sweep", 50*time.Millisecond, monitor.Process)

	retryTransport := reliability.NewRetry(local, monitor, 3, 200*time.Millisecond, 25*time.Millisecond, 200*time.Millisecond)
	disp := remote.NewDispatcher(retryTransport, jsonser.Serializer{}, nil, loggingErrorSink{})
	defer disp.Close()

	d := remote.Bind(disp, sumReceiverID, context.Background())
	if _, err := d.Invoke(1.0, 2.0, 3.0); err != nil {
		nlog.Errorf("remote invoke failed: %v", err)
		return
	}
	fmt.Println("remote invoke acked; peer logged its own computed sum")
}

type loggingErrorSink struct{}

func (loggingErrorSink) ReportError(err error) {
	nlog.Warningf("remote: out-of-band error: %v", err)
}
