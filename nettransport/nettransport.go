// Package nettransport is a remote.Transport backed by a persistent
// fasthttp connection: each frame is POSTed as the request body to the
// peer's endpoint, where it is delivered to the peer's Recv; the HTTP
// response carries only an accept/reject status. The far side's reply
// frames (ack/error) travel the same way in the opposite direction. The
// pack carries valyala/fasthttp as a direct dependency for exactly this
// kind of low-overhead intra-cluster call; this package is its home.
package nettransport

import (
	"context"
	"fmt"
	"sync"

	"github.com/valyala/fasthttp"

	"github.com/relaykit/delegates/internal/nlog"
)

// Transport sends frames to a fixed remote address over a pooled
// fasthttp client connection and serves inbound frames over a fasthttp
// server listening on the local address. Outbound Send and inbound
// Recv are independent directions, matching remote.Transport's
// contract for a full-duplex peer.
type Transport struct {
	client   *fasthttp.Client
	remoteURL string

	server   *fasthttp.Server
	listenOn string

	mu      sync.Mutex
	inbox   chan []byte
	closing chan struct{}
}

// New starts a Transport that POSTs outbound frames to remoteURL and
// serves an inbound endpoint on listenOn.
func New(remoteURL, listenOn string) *Transport {
	t := &Transport{
		client:    &fasthttp.Client{Name: "delegates/nettransport"},
		remoteURL: remoteURL,
		listenOn:  listenOn,
		inbox:     make(chan []byte, 64),
		closing:   make(chan struct{}),
	}
	t.server = &fasthttp.Server{
		Handler: t.handle,
		Name:    "delegates/nettransport",
	}
	go t.serve()
	return t
}

func (t *Transport) serve() {
	if err := t.server.ListenAndServe(t.listenOn); err != nil {
		select {
		case <-t.closing:
		default:
			nlog.Errorf("nettransport: server on %s stopped: %v", t.listenOn, err)
		}
	}
}

func (t *Transport) handle(ctx *fasthttp.RequestCtx) {
	body := ctx.PostBody()
	frame := make([]byte, len(body))
	copy(frame, body)
	select {
	case t.inbox <- frame:
		ctx.SetStatusCode(fasthttp.StatusAccepted)
	case <-t.closing:
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
}

// Send POSTs frame to the peer's inbound endpoint.
func (t *Transport) Send(ctx context.Context, frame []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.remoteURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetBody(frame)

	if err := t.client.Do(req, resp); err != nil {
		return fmt.Errorf("nettransport: send: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusAccepted {
		return fmt.Errorf("nettransport: peer rejected frame, status %d", resp.StatusCode())
	}
	return nil
}

// Recv blocks for the next frame POSTed to this Transport's endpoint.
func (t *Transport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case f := <-t.inbox:
		return f, nil
	case <-t.closing:
		return nil, fmt.Errorf("nettransport: closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the inbound server.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.closing:
		return nil
	default:
		close(t.closing)
	}
	return t.server.Shutdown()
}
