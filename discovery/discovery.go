// Package discovery lets santa peers running on the same host find each
// other. Every peer serves its own network address on the first free port of
// a fixed range and polls the rest of the range for the others.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
)

type Entry struct {
	Address string
}

func New(address string, port uint16) (*Discover, error) {
	return NewWithPortRange(address, port, port, 2)
}

func NewWithPortRange(address string, startPort, endPort uint16, attempts uint) (*Discover, error) {
	return NewWithOptions(address,
		WithPortRange(startPort, endPort),
		WithAttempts(attempts),
	)
}

func newRouter(address string) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(address))
	})
	return r
}

// search polls every port of the range once and reports the addresses it
// has not seen yet.
func (d *Discover) search(ctx context.Context, seen map[string]bool) {
	for port := d.startPort; port <= d.endPort && port >= d.startPort; port++ {
		if port == d.port {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://localhost:%d", port), nil)
		if err != nil {
			return
		}
		resp, err := d.client.Do(req)
		if err != nil {
			continue
		}
		buf, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil || len(buf) == 0 {
			continue
		}
		addr := string(buf)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		d.logger.Debug("peer discovered", "port", port, "address", addr)
		select {
		case d.Entries <- Entry{Address: addr}:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Discover) run(ctx context.Context) {
	defer close(d.Entries)
	seen := map[string]bool{d.address: true}
	for i := uint(0); d.attempts == 0 || i < d.attempts; i++ {
		d.search(ctx, seen)
		select {
		case <-time.After(d.interval):
		case <-ctx.Done():
			return
		}
	}
}

// Collect waits until n addresses are known, the local one included, and
// returns them sorted.
func (d *Discover) Collect(ctx context.Context, n int) ([]string, error) {
	addresses := []string{d.address}
	for len(addresses) < n {
		select {
		case e, ok := <-d.Entries:
			if !ok {
				return nil, fmt.Errorf("found %d of %d peers", len(addresses), n)
			}
			addresses = append(addresses, e.Address)
		case <-ctx.Done():
			return nil, fmt.Errorf("found %d of %d peers: %w", len(addresses), n, ctx.Err())
		}
	}
	slices.Sort(addresses)
	return addresses, nil
}

// Port is the port on which the local address is served.
func (d *Discover) Port() uint16 {
	return d.port
}

func (d *Discover) Close() error {
	d.cancel()
	return d.server.Shutdown(context.Background())
}

