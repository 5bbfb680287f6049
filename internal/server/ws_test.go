package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsHandler_Publish(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return s.Events().Clients() == 1 })

	if err := s.Events().Publish("gesture", map[string]any{"label": "click"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got struct {
		Kind string         `json:"kind"`
		Data map[string]any `json:"data"`
		At   int64          `json:"ts"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("invalid message %q: %v", msg, err)
	}
	if got.Kind != "gesture" || got.Data["label"] != "click" || got.At == 0 {
		t.Errorf("got %+v", got)
	}

	conn.Close()
	waitFor(t, func() bool { return s.Events().Clients() == 0 })
}

func TestEventsHandler_NoClients(t *testing.T) {
	h := NewEventsHandler()
	if err := h.Publish("gesture", map[string]any{"label": "fist"}); err != nil {
		t.Errorf("Publish() without clients = %v", err)
	}
	h.Close()
	h.Close()
}

func TestEventsHandler_CloseDisconnects(t *testing.T) {
	h := NewEventsHandler()
	ts := httptest.NewServer(h)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return h.Clients() == 1 })

	h.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close")
	}
	if h.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", h.Clients())
	}
}

func TestPreview_NotWatching(t *testing.T) {
	p := NewPreview()
	if p.Watching() {
		t.Fatal("new preview should have no viewers")
	}
	if err := p.Publish(nil, nil); err != nil {
		t.Errorf("Publish(nil) = %v", err)
	}
	if data, seq := p.Latest(); data != nil || seq != 0 {
		t.Errorf("Latest() = %d bytes, seq %d; want empty", len(data), seq)
	}
}

func TestPreview_Next(t *testing.T) {
	p := NewPreview()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err := p.next(ctx, 0); err == nil {
		t.Fatal("next() without frames should time out")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.PublishJPEG([]byte("one"))
	}()
	data, seq, err := p.next(context.Background(), 0)
	if err != nil || string(data) != "one" || seq != 1 {
		t.Errorf("next() = %q, %d, %v", data, seq, err)
	}
}

func TestStreamHandler(t *testing.T) {
	p := NewPreview()
	s := New(Config{Preview: p})
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}
	waitFor(t, p.Watching)

	p.PublishJPEG([]byte("\xff\xd8fake\xff\xd9"))

	r := bufio.NewReader(resp.Body)
	header := make([]string, 0, 4)
	for len(header) < 4 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read part header: %v", err)
		}
		header = append(header, strings.TrimRight(line, "\r\n"))
	}
	if header[0] != "--frame" || header[1] != "Content-Type: image/jpeg" || header[2] != "Content-Length: 8" {
		t.Errorf("part header = %q", header)
	}
	body := make([]byte, 8)
	if _, err := io.ReadFull(r, body); err != nil || string(body) != "\xff\xd8fake\xff\xd9" {
		t.Errorf("part body = %q, %v", body, err)
	}
}
