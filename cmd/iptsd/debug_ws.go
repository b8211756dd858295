package main

// Optional diagnostic websocket relay. Reconnecting client with an
// aggressive ping ticker and a pong deadline — structurally identical to
// the teacher's ws_client.go, just repointed at streaming decoded IPTS
// events (as JSON envelopes) instead of stroke points.

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quo/iptsd/ipts"
)

type debugWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex

	done chan struct{}
	errC chan error
}

func dialDebugWS(ctx context.Context, wsURL string, pingEvery, pongWait time.Duration) (*debugWSConn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		NetDialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
	}

	conn, _, err := d.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	w := &debugWSConn{
		conn: conn,
		done: make(chan struct{}),
		errC: make(chan error, 1),
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop(pingEvery)
	return w, nil
}

func (w *debugWSConn) Close() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	_ = w.conn.Close()
}

func (w *debugWSConn) Err() <-chan error { return w.errC }

func (w *debugWSConn) sendErr(err error) {
	select {
	case w.errC <- err:
	default:
	}
}

func (w *debugWSConn) readLoop() {
	for {
		select {
		case <-w.done:
			return
		default:
		}
		if _, _, err := w.conn.ReadMessage(); err != nil {
			w.sendErr(err)
			return
		}
	}
}

func (w *debugWSConn) pingLoop(pingEvery time.Duration) {
	t := time.NewTicker(pingEvery)
	defer t.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-t.C:
			w.mu.Lock()
			_ = w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err := w.conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			w.mu.Unlock()
			if err != nil {
				w.sendErr(err)
				return
			}
		}
	}
}

func (w *debugWSConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

// debugEnvelope wraps one decoded event for the diagnostic relay. Exactly
// one of the payload fields is set.
type debugEnvelope struct {
	Kind      string           `json:"kind"`
	Stylus    *ipts.StylusData `json:"stylus,omitempty"`
	Heatmap   *debugHeatmap    `json:"heatmap,omitempty"`
	DftWindow *ipts.DftWindow  `json:"dft_window,omitempty"`
	Metadata  *ipts.Metadata   `json:"metadata,omitempty"`
}

// debugHeatmap mirrors ipts.Heatmap but base64-friendly: json.Marshal
// already renders []byte as base64, so no extra work is needed beyond
// naming the fields — this type exists to avoid ever marshaling the
// heatmap's aliased buffer concurrently with the parser reusing it (the
// relay goroutine gets a owned copy, see debugRelay.pushHeatmap).
type debugHeatmap struct {
	Width, Height          uint8
	YMin, YMax, XMin, XMax uint8
	ZMin, ZMax             uint8
	Timestamp, Count       uint32
	Data                   []byte
}

// debugRelay owns the reconnecting connection and exposes push methods
// safe to call inline from parser observer callbacks. Pushes never
// block the parser on a slow/broken socket: a full queue just drops the
// event.
type debugRelay struct {
	url                 string
	pingEvery, pongWait time.Duration
	log                 *logger

	queue chan debugEnvelope
}

func newDebugRelay(wsURL string, pingEvery, pongWait time.Duration, log *logger) *debugRelay {
	r := &debugRelay{url: wsURL, pingEvery: pingEvery, pongWait: pongWait, log: log, queue: make(chan debugEnvelope, 256)}
	go r.run()
	return r
}

func (r *debugRelay) run() {
	reconnectDelay := 500 * time.Millisecond
	maxReconnectDelay := 5 * time.Second

	for {
		conn, err := dialDebugWS(context.Background(), r.url, r.pingEvery, r.pongWait)
		if err != nil {
			j := time.Duration(rand.Int63n(int64(250 * time.Millisecond)))
			r.log.debugf("debug-ws connect error: %v; retrying in %s", err, reconnectDelay+j)
			time.Sleep(reconnectDelay + j)
			reconnectDelay = time.Duration(math.Min(float64(maxReconnectDelay), float64(reconnectDelay)*1.7))
			continue
		}
		r.log.debugf("debug-ws connected url=%s", r.url)
		reconnectDelay = 500 * time.Millisecond

		r.drain(conn)
		conn.Close()
	}
}

func (r *debugRelay) drain(conn *debugWSConn) {
	for {
		select {
		case err := <-conn.Err():
			r.log.debugf("debug-ws disconnected: %v", err)
			return
		case env := <-r.queue:
			if err := conn.writeJSON(env); err != nil {
				r.log.debugf("debug-ws write error: %v", err)
				return
			}
		}
	}
}

func (r *debugRelay) push(env debugEnvelope) {
	select {
	case r.queue <- env:
	default:
		// Queue full: drop rather than block the parser.
	}
}

func (r *debugRelay) pushStylus(d ipts.StylusData) {
	r.push(debugEnvelope{Kind: "stylus", Stylus: &d})
}

func (r *debugRelay) pushHeatmap(h ipts.Heatmap) {
	cp := debugHeatmap{
		Width: h.Width, Height: h.Height,
		YMin: h.YMin, YMax: h.YMax, XMin: h.XMin, XMax: h.XMax,
		ZMin: h.ZMin, ZMax: h.ZMax,
		Timestamp: h.Timestamp, Count: h.Count,
		Data: append([]byte(nil), h.Data...),
	}
	r.push(debugEnvelope{Kind: "heatmap", Heatmap: &cp})
}

func (r *debugRelay) pushDftWindow(w ipts.DftWindow) {
	r.push(debugEnvelope{Kind: "dft_window", DftWindow: &w})
}

func (r *debugRelay) pushMetadata(m ipts.Metadata) {
	r.push(debugEnvelope{Kind: "metadata", Metadata: &m})
}
