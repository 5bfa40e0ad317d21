// SPDX-License-Identifier: MIT
package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spectra/internal/spectrum"

	"github.com/gorilla/websocket"
)

func testFrame(seq uint64) spectrum.Frame {
	cfg := spectrum.DefaultConfig()
	return spectrum.Frame{
		Seq:       seq,
		Timestamp: time.UnixMilli(1700000000123),
		Config:    cfg,
		Bars: []spectrum.Bar{
			{Range: spectrum.BarRange{LowHz: 50, HighHz: 100}, RawValue: 0.02, Value: 0.25},
			{Range: spectrum.BarRange{LowHz: 100, HighHz: 200}, RawValue: 0.04, Value: 0.5},
		},
	}
}

func dialTestServer(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(wst.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + BarsPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) = %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestWebSocketBroadcastsFrames(t *testing.T) {
	wst := NewWebSocketTransport("")
	defer wst.Close()
	conn := dialTestServer(t, wst)

	if err := wst.Send(testFrame(7)); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FrameMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() = %v", err)
	}

	if msg.Seq != 7 || msg.Timestamp != 1700000000123 || msg.MaxVolume != 1 {
		t.Errorf("header = %+v", msg)
	}
	if len(msg.Bars) != 2 || msg.Bars[1] != (BarMessage{LowHz: 100, HighHz: 200, Raw: 0.04, Value: 0.5}) {
		t.Errorf("bars = %+v", msg.Bars)
	}
}

func TestWebSocketClientDisconnect(t *testing.T) {
	wst := NewWebSocketTransport("")
	defer wst.Close()
	conn := dialTestServer(t, wst)

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketSendAfterClose(t *testing.T) {
	wst := NewWebSocketTransport("")
	if err := wst.Close(); err != nil {
		t.Fatal(err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := wst.Send(testFrame(1)); err == nil {
		t.Error("Send() after Close returned nil")
	}
}

func TestWebSocketSendEvictsOldest(t *testing.T) {
	// No broadcast loop, so queued frames stay put.
	wst := &WebSocketTransport{
		broadcast: make(chan any, broadcastDepth),
		done:      make(chan struct{}),
	}

	const sent = broadcastDepth + 3
	for i := range sent {
		if err := wst.Send(testFrame(uint64(i))); err != nil {
			t.Fatal(err)
		}
	}

	if got := wst.Dropped(); got != sent-broadcastDepth {
		t.Errorf("Dropped() = %d, want %d", got, sent-broadcastDepth)
	}
	for want := uint64(sent - broadcastDepth); want < sent; want++ {
		frame := (<-wst.broadcast).(spectrum.Frame)
		if frame.Seq != want {
			t.Fatalf("queued Seq = %d, want %d (newest frames kept in order)", frame.Seq, want)
		}
	}
}

func TestWebSocketSendNeverBlocks(t *testing.T) {
	wst := NewWebSocketTransport("")
	defer wst.Close()

	done := make(chan struct{})
	go func() {
		for i := range 10000 {
			_ = wst.Send(testFrame(uint64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked")
	}
}
