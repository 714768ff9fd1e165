// Address normalization derived from the lnd repository
// (https://github.com/lightningnetwork/lnd/blob/master/lncfg/address.go),
// original copyright: Copyright (C) 2015-2022 Lightning Labs and The Lightning Network Developers

package withdrawercfg

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

type TCPResolver = func(network, addr string) (*net.TCPAddr, error)

// verifyPort makes sure that an address string has both a host and a port.
// If there is no port found, the default port is appended. If the address is
// just a port, then we'll assume that the user is using the short cut to
// specify a localhost:port address.
func verifyPort(address string, defaultPort string) string {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		// If the address itself is just an integer, then we'll assume
		// that we're mapping this directly to a localhost:port pair.
		if _, err := strconv.Atoi(address); err == nil {
			return net.JoinHostPort("localhost", address)
		}

		// Otherwise, we'll assume that the address just failed to attach
		// its own port, so we'll use the default port.
		if strings.HasPrefix(address, "[") {
			return address + ":" + defaultPort
		}
		return net.JoinHostPort(address, defaultPort)
	}

	if host == "" && port == "" {
		return ":" + defaultPort
	}

	return address
}

// ParseAddressString parses an address in network://address:port,
// network:address:port, address:port or bare port form into a net.Addr.
// Only TCP and unix socket addresses are supported.
func ParseAddressString(strAddress string, defaultPort string,
	tcpResolver TCPResolver) (net.Addr, error) {
	var parsedNetwork, parsedAddr string

	if strings.Contains(strAddress, "://") {
		parts := strings.Split(strAddress, "://")
		parsedNetwork, parsedAddr = parts[0], parts[1]
	} else if strings.Contains(strAddress, ":") {
		parts := strings.Split(strAddress, ":")
		parsedNetwork = parts[0]
		parsedAddr = strings.Join(parts[1:], ":")
	}

	switch parsedNetwork {
	case "unix", "unixpacket":
		return net.ResolveUnixAddr(parsedNetwork, parsedAddr)

	case "tcp", "tcp4", "tcp6":
		return tcpResolver(
			parsedNetwork, verifyPort(parsedAddr, defaultPort),
		)

	case "ip", "ip4", "ip6", "udp", "udp4", "udp6", "unixgram":
		return nil, fmt.Errorf("only TCP or unix socket "+
			"addresses are supported: %s", parsedAddr)

	default:
		return tcpResolver("tcp", verifyPort(strAddress, defaultPort))
	}
}

// NormalizeAddresses parses and deduplicates a list of listener address
// strings.
func NormalizeAddresses(addrs []string, defaultPort string,
	tcpResolver TCPResolver) ([]net.Addr, error) {
	result := make([]net.Addr, 0, len(addrs))
	seen := map[string]struct{}{}

	for _, addr := range addrs {
		parsedAddr, err := ParseAddressString(
			addr, defaultPort, tcpResolver,
		)
		if err != nil {
			return nil, fmt.Errorf("parse address %s failed: %w",
				addr, err)
		}

		if _, ok := seen[parsedAddr.String()]; !ok {
			result = append(result, parsedAddr)
			seen[parsedAddr.String()] = struct{}{}
		}
	}

	return result, nil
}
