package main

import (
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luca-patrignani/mental-santa/network"
)

// guessIpAddress takes a base IP address and a partial address string,
// and fills in the missing octets from the base address.
func guessIpAddress(baseAddress net.IP, partialAddr string) (net.IP, error) {
	ip := make(net.IP, len(baseAddress))
	copy(ip, baseAddress)
	octets := strings.Split(partialAddr, ".")
	if len(octets) == 1 && octets[0] == "" {
		return ip, nil
	}
	if len(octets) > len(ip) {
		return net.IP{}, fmt.Errorf("too many octets in %q", partialAddr)
	}
	for i := 0; i < len(octets); i++ {
		octet, err := strconv.ParseUint(octets[i], 10, 8)
		if err != nil {
			return net.IP{}, err
		}
		ip[len(ip)-len(octets)+i] = byte(octet)
	}
	return ip, nil
}

// subnetOfListener returns the IP network (CIDR) of the interface that contains
// the local address used by the provided TCP listener.
func subnetOfListener(l *net.TCPListener) (net.IPNet, error) {
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return net.IPNet{}, fmt.Errorf("listener is not TCP")
	}
	ip := tcpAddr.IP
	if ip == nil || ip.IsUnspecified() {
		return net.IPNet{}, fmt.Errorf("listener has unspecified IP %v", ip)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}
	for _, ifi := range ifaces {
		addrs, _ := ifi.Addrs()
		for _, a := range addrs {
			var ipnet *net.IPNet
			switch v := a.(type) {
			case *net.IPNet:
				ipnet = v
			case *net.IPAddr:
				ipnet = &net.IPNet{IP: v.IP, Mask: v.IP.DefaultMask()}
			default:
				continue
			}
			if ipnet.Contains(ip) || ipnet.IP.Equal(ip) {
				return *ipnet, nil
			}
		}
	}
	return net.IPNet{}, fmt.Errorf("no interface found for ip %v", ip)
}

// splitHostPort splits an address into host and port, using defaultPort if no port is specified.
func splitHostPort(addr string, defaultPort int) (string, string, error) {
	ipaddr, port, err := net.SplitHostPort(addr)
	if err != nil {
		addr = addr + ":" + strconv.Itoa(defaultPort)
		ipaddr, port, err = net.SplitHostPort(addr)
		if err != nil {
			return "", "", err
		}
	}
	return ipaddr, port, nil
}

// createP2P sorts addresses in place so that every peer derives the same
// ranks, and returns the rank of the peer listening on l.
func createP2P(addresses []string, l net.Listener, timeout time.Duration, logger *slog.Logger) (p2p *network.P2P, myRank int) {
	sort.Strings(addresses)
	mapAddresses := make(map[int]string)
	for i, addr := range addresses {
		mapAddresses[i] = addr
		if addr == l.Addr().String() {
			myRank = i
		}
	}
	peer := network.NewPeer(myRank, mapAddresses, l, timeout, network.WithLogger(logger))
	return network.NewP2P(peer), myRank
}

// exchangeNames doubles as a connection check before the first attempt.
func exchangeNames(p2p *network.P2P, name string) ([]string, error) {
	if name == "" {
		name = fmt.Sprintf("participant %d", p2p.GetRank()+1)
	}
	byteNames, err := p2p.AllToAll([]byte(name))
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, name := range byteNames {
		names = append(names, string(name))
	}
	return names, nil
}
