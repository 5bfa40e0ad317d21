// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"spectra/internal/log"
	"spectra/internal/spectrum"

	"github.com/gorilla/websocket"
)

const (
	// BarsPath is the endpoint clients connect to.
	BarsPath = "/bars"

	writeWait = time.Second

	// broadcastDepth bounds how far clients can lag behind the newest frame.
	broadcastDepth = 4
)

// WebSocketTransport broadcasts frames as JSON to every connected client.
// Frames are queued on a bounded channel; when it is full the oldest queued
// frame is evicted, so a slow client never holds up the pipeline and always
// catches up to the newest state.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	broadcast chan any
	sendMu    sync.Mutex // Serializes producers so eviction and enqueue pair up.
	dropped   atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
	log       *log.Logger
}

// NewWebSocketTransport creates a transport and starts its broadcast loop.
// Call ListenAndServe to accept connections on addr, or mount Handler on an
// existing server.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Visualizer pages are served from anywhere, including file://.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan any, broadcastDepth),
		done:      make(chan struct{}),
		log:       log.Named("websocket"),
	}
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving BarsPath.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(BarsPath, wst.handleWebSocket)
	return mux
}

// ListenAndServe binds addr and serves in the background. It returns once
// the listener is ready so bind errors surface immediately.
func (wst *WebSocketTransport) ListenAndServe() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return err
	}
	wst.server = &http.Server{
		Handler:           wst.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		wst.log.Infof("listening on ws://%s%s", ln.Addr(), BarsPath)
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			wst.log.Errorf("server error: %v", err)
		}
	}()
	return nil
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wst.log.Warnf("upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = struct{}{}
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	wst.log.Infof("client %s connected, total: %d", conn.RemoteAddr(), total)

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.remove(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) remove(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	if ok {
		conn.Close()
		wst.log.Infof("client %s disconnected, total: %d", conn.RemoteAddr(), total)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			if frame, ok := data.(spectrum.Frame); ok {
				data = NewFrameMessage(frame)
			}

			wst.clientsMu.Lock()
			conns := make([]*websocket.Conn, 0, len(wst.clients))
			for c := range wst.clients {
				conns = append(conns, c)
			}
			wst.clientsMu.Unlock()

			for _, c := range conns {
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteJSON(data); err != nil {
					wst.log.Debugf("send to %s: %v", c.RemoteAddr(), err)
					wst.remove(c)
				}
			}
		}
	}
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Send queues data for broadcast. spectrum.Frame values are sent as
// FrameMessage; anything else is encoded as is. When the queue is full the
// oldest queued item is dropped to make room.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return net.ErrClosed
	default:
	}

	wst.sendMu.Lock()
	defer wst.sendMu.Unlock()
	for {
		select {
		case wst.broadcast <- data:
			return nil
		default:
		}
		select {
		case <-wst.broadcast:
			wst.dropped.Add(1)
		default:
		}
	}
}

// Dropped returns how many queued items were evicted by newer ones.
func (wst *WebSocketTransport) Dropped() uint64 { return wst.dropped.Load() }

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		close(wst.done)

		wst.clientsMu.Lock()
		for c := range wst.clients {
			c.Close()
		}
		clear(wst.clients)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err = wst.server.Shutdown(ctx)
		}
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
