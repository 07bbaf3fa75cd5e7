package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

type Discover struct {
	// Entries receives every newly discovered address once. It is closed
	// when the search stops.
	Entries   chan Entry
	address   string
	port      uint16
	startPort uint16
	endPort   uint16
	server    *http.Server
	client    *http.Client
	attempts  uint
	interval  time.Duration
	logger    *slog.Logger
	cancel    context.CancelFunc
}

type option func(Discover) Discover

func NewWithOptions(address string, opts ...option) (*Discover, error) {
	d := Discover{
		Entries:   make(chan Entry),
		address:   address,
		startPort: 9000,
		endPort:   9010,
		attempts:  1,
		interval:  time.Second,
		client:    &http.Client{Timeout: time.Second},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		d = opt(d)
	}
	if d.startPort > d.endPort {
		return nil, fmt.Errorf("empty port range %d-%d", d.startPort, d.endPort)
	}

	var l net.Listener
	var err error
	for port := d.startPort; port <= d.endPort && port >= d.startPort; port++ {
		l, err = net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			d.port = port
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("no free port in %d-%d: %w", d.startPort, d.endPort, err)
	}
	d.server = &http.Server{
		Handler: newRouter(address),
	}
	go func() {
		if err := d.server.Serve(l); err != nil && err != http.ErrServerClosed {
			d.logger.Error("discovery server stopped", "error", err)
		}
	}()
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.run(ctx)
	return &d, nil
}

func WithPortRange(startPort, endPort uint16) option {
	return func(d Discover) Discover {
		d.startPort = startPort
		d.endPort = endPort
		return d
	}
}

func WithPort(port uint16) option {
	return WithPortRange(port, port)
}

// WithAttempts bounds the number of searches. Zero searches until Close.
func WithAttempts(attempts uint) option {
	return func(d Discover) Discover {
		d.attempts = attempts
		return d
	}
}

func WithInterval(interval time.Duration) option {
	return func(d Discover) Discover {
		d.interval = interval
		return d
	}
}

func WithLogger(logger *slog.Logger) option {
	return func(d Discover) Discover {
		d.logger = logger
		return d
	}
}
