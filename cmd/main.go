package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/mental-santa/config"
	"github.com/luca-patrignani/mental-santa/discovery"
	"github.com/luca-patrignani/mental-santa/domain/santa"
	"github.com/luca-patrignani/mental-santa/network"
)

type options struct {
	config.Config
	Listen   string
	Name     string
	Discover int
}

func parseFlags(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("mental-santa", flag.ContinueOnError)
	fs.SetOutput(output)
	configPath := fs.String("config", "", "YAML configuration file")
	participants := fs.Int("n", config.DefaultParticipants, "number of participants in local mode")
	suite := fs.String("suite", "", "kyber suite backing the group")
	reveal := fs.Bool("reveal", false, "print the whole derangement in local mode")
	debug := fs.Bool("debug", false, "enable debug logging")
	rank := fs.Int("rank", 0, "rank of this peer in the configured peer list")
	timeout := fs.Duration("timeout", 0, "network timeout of every collective operation")
	listen := fs.String("listen", "", "ip to listen on, peers are then entered interactively")
	name := fs.String("name", "", "name shown to the other peers")
	discover := fs.Int("discover", 0, "find this many peers running on the same host")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	c := config.Default()
	if *configPath != "" {
		var err error
		c, err = config.Load(*configPath)
		if err != nil {
			return options{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			c.Participants = *participants
		case "suite":
			c.Suite = *suite
		case "reveal":
			c.Reveal = *reveal
		case "debug":
			c.Debug = *debug
		case "rank":
			c.Rank = *rank
		case "timeout":
			c.Timeout = *timeout
		}
	})
	if *listen != "" && c.Networked() {
		return options{}, fmt.Errorf("%w: -listen cannot be combined with configured peers", santa.ErrInvalidConfig)
	}
	if *discover != 0 {
		if *listen != "" || c.Networked() {
			return options{}, fmt.Errorf("%w: -discover cannot be combined with -listen or configured peers", santa.ErrInvalidConfig)
		}
		c.Participants = *discover
	}
	if *listen == "" {
		if err := c.Validate(); err != nil {
			return options{}, err
		}
	}
	return options{Config: c, Listen: *listen, Name: *name, Discover: *discover}, nil
}

func newLogger(debug bool) *slog.Logger {
	logger := &pterm.DefaultLogger
	if debug {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDebug)
	}
	return slog.New(pterm.NewSlogHandler(logger))
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}
	logger := newLogger(opts.Debug)
	renderBanner()

	switch {
	case opts.Discover > 0:
		err = runDiscover(opts, logger)
	case opts.Listen != "":
		err = runInteractive(opts, logger)
	case opts.Networked():
		err = runNetworked(opts, logger)
	default:
		err = runLocal(opts.Config, logger)
	}
	if err != nil {
		logger.Error("secret santa failed", "error", err)
		os.Exit(1)
	}
}

func runLocal(c config.Config, logger *slog.Logger) error {
	n := c.ParticipantCount()
	pterm.Info.Printfln("New secret santa among %d participants!", n)
	spinner, _ := pterm.DefaultSpinner.Start("Drawing the derangement ...")
	o, err := santa.NewOrchestrator(n,
		santa.WithSuite(c.Suite),
		santa.WithLogger(logger),
		santa.WithObserver(func(r santa.AttemptReport) {
			if !r.Accepted() {
				spinner.UpdateText(fmt.Sprintf("Attempt %d discarded, drawing again ...", r.Number))
			}
		}),
	)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	outcome, err := o.Run()
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("Accepted after %d attempts, %.2f expected", outcome.Attempts(), santa.ExpectedAttempts(n)))
	logger.Debug("accepted attempt", "id", outcome.AttemptID())

	if c.Reveal {
		return pterm.DefaultTable.WithHasHeader().WithData(revealTable(outcome.Reveal(), nil)).Render()
	}
	for id := 1; id <= n; id++ {
		a, err := outcome.For(id)
		if err != nil {
			return err
		}
		pterm.Println(giftLine(a, nil))
	}
	return nil
}

func runNetworked(opts options, logger *slog.Logger) error {
	l, err := net.Listen("tcp", opts.Peers[opts.Rank])
	if err != nil {
		return fmt.Errorf("listening on %s: %w", opts.Peers[opts.Rank], err)
	}
	pterm.Info.Printfln("Listening on %s with rank %d", l.Addr(), opts.Rank)
	peer := network.NewPeer(opts.Rank, opts.Addresses(), l, opts.Timeout, network.WithLogger(logger))
	return runSession(network.NewP2P(peer), opts, logger)
}

// runInteractive asks for the address of every other peer, then ranks the
// peers by address.
func runInteractive(opts options, logger *slog.Logger) error {
	l, err := net.Listen("tcp", opts.Listen+":0")
	if err != nil {
		return fmt.Errorf("listening on %s: %w", opts.Listen, err)
	}
	pterm.Info.Println("Listening on " + l.Addr().String())
	if tcp, ok := l.(*net.TCPListener); ok {
		if subnet, err := subnetOfListener(tcp); err == nil {
			pterm.Info.Printfln("Peers in %s can be entered by their last octets", subnet.String())
		}
	}
	pterm.Print("\n")
	if opts.Name == "" {
		opts.Name, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your name").Show()
	}

	localIp, localPort, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		return err
	}
	defaultPort, _ := strconv.Atoi(localPort)
	addresses := []string{l.Addr().String()}
	for {
		addr, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter a peer address in ipaddr:port format. When done, type done").Show()
		if addr == "done" {
			break
		}
		pterm.Println()
		ipaddr, port, err := splitHostPort(addr, defaultPort)
		if err != nil {
			logger.Error("invalid address format", "address", addr, "error", err)
			continue
		}
		guessed, err := guessIpAddress(net.ParseIP(localIp), ipaddr)
		if err != nil {
			logger.Error("could not guess address", "address", addr, "error", err)
			continue
		}
		addresses = append(addresses, net.JoinHostPort(guessed.String(), port))
	}
	p2p, rank := createP2P(addresses, l, opts.Timeout, logger)
	pterm.Info.Printfln("Your rank is %d", rank)
	opts.Peers = addresses
	opts.Rank = rank
	if err := opts.Validate(); err != nil {
		p2p.Close()
		return err
	}
	return runSession(p2p, opts, logger)
}

// withTimeout treats a zero timeout as no deadline, like network.NewPeer.
func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// runDiscover finds the other peers on this host through the discovery
// port range and ranks them by address.
func runDiscover(opts options, logger *slog.Logger) error {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	d, err := discovery.NewWithOptions(l.Addr().String(),
		discovery.WithAttempts(0),
		discovery.WithLogger(logger),
	)
	if err != nil {
		l.Close()
		return err
	}
	defer d.Close()
	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Looking for %d participants ...", opts.Discover))
	ctx, cancel := withTimeout(opts.Timeout)
	defer cancel()
	addresses, err := d.Collect(ctx, opts.Discover)
	if err != nil {
		spinner.Fail(err.Error())
		l.Close()
		return err
	}
	spinner.Success(fmt.Sprintf("Found %d participants", len(addresses)))
	p2p, rank := createP2P(addresses, l, opts.Timeout, logger)
	pterm.Info.Printfln("Your rank is %d", rank)
	opts.Peers = addresses
	opts.Rank = rank
	return runSession(p2p, opts, logger)
}

func runSession(p2p *network.P2P, opts options, logger *slog.Logger) error {
	defer p2p.Close()
	spinner, _ := pterm.DefaultSpinner.Start("Trying to establish the connections with the other participants...")
	names, err := exchangeNames(p2p, opts.Name)
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success(fmt.Sprintf("Successfully connected with %d participants", len(names)-1))
	for i, name := range names {
		logger.Info("participant", "rank", i, "address", p2p.GetAddresses()[i], "name", name)
	}

	spinner, _ = pterm.DefaultSpinner.Start("Drawing the derangement ...")
	session, err := santa.NewSession(p2p,
		santa.WithSuite(opts.Suite),
		santa.WithLogger(logger),
		santa.WithObserver(func(r santa.AttemptReport) {
			if !r.Accepted() {
				spinner.UpdateText(fmt.Sprintf("Attempt %d discarded, drawing again ...", r.Number))
			}
		}),
	)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	a, err := session.Run()
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("Accepted after %d attempts", session.Attempts()))
	pterm.Println(assignmentPanel(a, names))
	return nil
}
