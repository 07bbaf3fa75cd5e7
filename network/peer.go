package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	clockHeader  = "X-Clock"
	senderHeader = "X-Sender-Rank"
)

// Peer is an helper struct for communication between nodes.
// the Rank is an identifier of the Peer.
// Addresses[i] contains the address to reach the Peer with Rank i.
type Peer struct {
	Rank          int
	Addresses     map[int]string
	clock         uint64
	server        *http.Server
	handler       *broadcastHandler
	client        *http.Client
	timeout       time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// NewPeer starts serving on l. A zero timeout waits forever.
func NewPeer(rank int, addresses map[int]string, l net.Listener, timeout time.Duration, opts ...PeerOption) *Peer {
	handler := &broadcastHandler{
		contentChannel: make(chan delivery),
		done:           make(chan struct{}),
	}
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Method(http.MethodPost, "/", handler)

	p := &Peer{
		Rank:          rank,
		Addresses:     copyMap(addresses),
		server:        &http.Server{Addr: addresses[rank], Handler: router},
		handler:       handler,
		client:        &http.Client{Timeout: timeout},
		timeout:       timeout,
		retryInterval: time.Millisecond,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	handler.logger = p.logger
	go func() {
		err := p.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("peer server stopped", "rank", rank, "error", err)
		}
	}()
	return p
}

func (p *Peer) Close() error {
	p.handler.closeOnce.Do(func() { close(p.handler.done) })
	return p.server.Shutdown(context.Background())
}

type delivery struct {
	clock   uint64
	content []byte
}

type broadcastHandler struct {
	active         atomic.Bool
	clock          atomic.Uint64
	contentChannel chan delivery
	// done releases handlers still waiting for a receiver once the peer closes.
	done           chan struct{}
	closeOnce      sync.Once
	logger         *slog.Logger
}

func (h *broadcastHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if !h.active.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	senderClock, err := strconv.ParseUint(req.Header.Get(clockHeader), 10, 64)
	if err != nil {
		h.logger.Warn("rejected broadcast without clock", "sender", req.Header.Get(senderHeader))
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	if senderClock != h.clock.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	content, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	select {
	case h.contentChannel <- delivery{clock: senderClock, content: content}:
		rw.WriteHeader(http.StatusAccepted)
	case <-h.done:
		rw.WriteHeader(http.StatusServiceUnavailable)
	}
}

// Peer with Rank root sends the content of bufferSend to every node.
// bufferRecv will contain the value sent by the Peer with Rank root.
// This function will implicitly synchronize the peers.
func (p *Peer) Broadcast(bufferSend []byte, root int) ([]byte, error) {
	bufferRecv, err := p.broadcastNoBarrier(bufferSend, root)
	if err != nil {
		return nil, err
	}
	if err := p.barrier(); err != nil {
		return nil, err
	}
	return bufferRecv, nil
}

// Each caller of AllToAll sends the content of bufferSend to every node.
// bufferRecv[i] will contain the value sent by the Peer with Rank i.
// This function will implicitly synchronize the peers.
func (p *Peer) AllToAll(bufferSend []byte) ([][]byte, error) {
	ranks := p.orderedRanks()
	if len(ranks) == 0 {
		return nil, fmt.Errorf("no addresses found")
	}
	bufferRecv := make([][]byte, ranks[len(ranks)-1]+1)
	for _, i := range ranks {
		recv, err := p.broadcastNoBarrier(bufferSend, i)
		if err != nil {
			return nil, err
		}
		bufferRecv[i] = recv
	}
	return bufferRecv, nil
}

// barrier guarantees that no Peer's control flow will leave this function
// until every peer has entered it.
func (p *Peer) barrier() error {
	_, err := p.AllToAll(nil)
	return err
}

func (p *Peer) orderedRanks() []int {
	ranks := make([]int, 0, len(p.Addresses))
	for k := range p.Addresses {
		ranks = append(ranks, k)
	}
	sort.Ints(ranks)
	return ranks
}

func (p *Peer) broadcastNoBarrier(bufferSend []byte, root int) ([]byte, error) {
	p.clock++
	if root == p.Rank {
		for _, i := range p.orderedRanks() {
			if i == p.Rank {
				continue
			}
			if err := p.send(i, bufferSend); err != nil {
				return nil, err
			}
		}
		return bufferSend, nil
	}
	return p.receive(root)
}

// send retries until the receiver accepts the message for the current clock.
func (p *Peer) send(to int, data []byte) error {
	url := "http://" + p.Addresses[to]
	start := time.Now()
	for {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set(clockHeader, strconv.FormatUint(p.clock, 10))
		req.Header.Set(senderHeader, strconv.Itoa(p.Rank))
		resp, err := p.client.Do(req)
		if err == nil {
			status := resp.StatusCode
			if err := resp.Body.Close(); err != nil {
				return err
			}
			if status == http.StatusAccepted {
				return nil
			}
			if status != http.StatusNotAcceptable {
				return fmt.Errorf("peer %d answered with status code %d", to, status)
			}
		}
		if p.timeout > 0 && time.Since(start) > p.timeout {
			if err != nil {
				return fmt.Errorf("connection attempts to peer %d timed out with error %w", to, err)
			}
			return fmt.Errorf("connection attempts to peer %d timed out", to)
		}
		time.Sleep(p.retryInterval)
	}
}

func (p *Peer) receive(root int) ([]byte, error) {
	p.handler.clock.Store(p.clock)
	p.handler.active.Store(true)
	defer p.handler.active.Store(false)

	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	for {
		select {
		case d := <-p.handler.contentChannel:
			if d.clock != p.clock {
				// left over from a previous broadcast
				continue
			}
			p.logger.Debug("broadcast received", "rank", p.Rank, "root", root, "clock", d.clock, "bytes", len(d.content))
			return d.content, nil
		case <-timeout:
			err := p.Close()
			return nil, errors.Join(err, fmt.Errorf("peer %d timed out waiting for peer %d", p.Rank, root))
		}
	}
}

// CreateAddresses returns n free localhost addresses.
func CreateAddresses(n int) map[int]string {
	addresses := make(map[int]string)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(err)
		}
		addresses[i] = l.Addr().String()
		if err := l.Close(); err != nil {
			panic(err)
		}
	}
	return addresses
}

// CreateListeners opens n localhost listeners, ready to be passed to NewPeer.
func CreateListeners(n int) (map[int]net.Listener, map[int]string) {
	listeners := make(map[int]net.Listener)
	addresses := make(map[int]string)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(err)
		}
		listeners[i] = l
		addresses[i] = l.Addr().String()
	}
	return listeners, addresses
}

func copyMap(original map[int]string) map[int]string {
	copied := make(map[int]string, len(original))
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
