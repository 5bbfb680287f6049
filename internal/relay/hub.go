package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
)

// maxLine bounds a single relay line.
const maxLine = 1 << 20

// Hub accepts peers and copies every line a peer sends to all other peers.
//
// Writes happen under one lock, so a slow peer delays delivery to everyone.
// A peer whose write fails is dropped.
type Hub struct {
	addr    string
	metrics *metrics.Metrics
	log     *log.Logger

	mu    sync.Mutex
	ln    net.Listener
	peers map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewHub creates a hub for addr. m may be nil.
func NewHub(addr string, m *metrics.Metrics) *Hub {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Hub{
		addr:    addr,
		metrics: m,
		log:     logging.WithPrefix("relay"),
		peers:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the hub address. It is called by ListenAndServe when needed.
func (h *Hub) Listen() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.addr, err)
	}
	h.ln = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (h *Hub) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln != nil {
		return h.ln.Addr().String()
	}
	return h.addr
}

// ListenAndServe accepts peers until ctx is cancelled, then disconnects them all.
func (h *Hub) ListenAndServe(ctx context.Context) error {
	if err := h.Listen(); err != nil {
		return err
	}

	h.mu.Lock()
	ln := h.ln
	h.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		h.closePeers()
	})
	defer stop()

	h.log.Info("hub listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				h.closePeers()
				h.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		h.add(conn)
		h.wg.Add(1)
		go h.serve(conn)
	}
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *Hub) serve(conn net.Conn) {
	defer h.wg.Done()
	defer h.drop(conn)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		h.broadcast(append(append([]byte(nil), line...), '\n'), conn)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		h.log.Debug("peer read failed", "peer", conn.RemoteAddr().String(), "err", err)
	}
}

// broadcast writes line to every peer except sender.
func (h *Hub) broadcast(line []byte, sender net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for peer := range h.peers {
		if peer == sender {
			continue
		}
		if _, err := peer.Write(line); err != nil {
			h.log.Warn("dropping peer", "peer", peer.RemoteAddr().String(), "err", err)
			h.removeLocked(peer)
			continue
		}
		if h.metrics != nil {
			h.metrics.RelayMessages.Add(1)
		}
	}
}

func (h *Hub) add(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[conn] = struct{}{}
	h.log.Info("peer connected", "peer", conn.RemoteAddr().String(), "total", len(h.peers))
	h.updatePeers()
}

func (h *Hub) drop(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[conn]; ok {
		h.removeLocked(conn)
		h.log.Info("peer disconnected", "peer", conn.RemoteAddr().String(), "total", len(h.peers))
	}
}

func (h *Hub) removeLocked(conn net.Conn) {
	conn.Close()
	delete(h.peers, conn)
	h.updatePeers()
}

func (h *Hub) closePeers() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for peer := range h.peers {
		h.removeLocked(peer)
	}
}

func (h *Hub) updatePeers() {
	if h.metrics != nil {
		h.metrics.RelayPeers.Store(uint64(len(h.peers)))
	}
}
