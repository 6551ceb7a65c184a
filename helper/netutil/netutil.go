// Package netutil resolves the address a node advertises to its peers.
package netutil

import (
	"fmt"
	"net"
	"strconv"

	log "github.com/sirupsen/logrus"

	"peershare/datamodel/peer"
)

// AdvertiseAddr picks the host:port other peers should dial to reach a
// listener bound to bound. A listener on a concrete host advertises that
// host. One bound to the unspecified address (":9004", "0.0.0.0:9004")
// advertises the first usable address of an up interface, preferring IPv4,
// and falls back to the loopback when the machine has none.
func AdvertiseAddr(bound net.Addr) (peer.Address, error) {
	host, portStr, err := net.SplitHostPort(bound.String())
	if err != nil {
		return peer.Address{}, fmt.Errorf("parse listener address %q: %w", bound, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return peer.Address{}, fmt.Errorf("listener address %q has no usable port", bound)
	}

	if host != "" {
		if ip := net.ParseIP(host); ip == nil || !ip.IsUnspecified() {
			return peer.Address{Host: host, Port: port}, nil
		}
	}

	if ip := firstUsableIP(); ip != nil {
		return peer.Address{Host: ip.String(), Port: port}, nil
	}
	log.Warnf("netutil: no usable interface address found, advertising the loopback")
	return peer.Address{Host: "127.0.0.1", Port: port}, nil
}

// firstUsableIP walks the up, non-loopback interfaces and returns the first
// global unicast address, preferring IPv4 over IPv6.
func firstUsableIP() net.IP {
	interfaces, err := net.Interfaces()
	if err != nil {
		log.Warnf("netutil: cannot list network interfaces: %v", err)
		return nil
	}

	var v6 net.IP
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifaddrs, err := iface.Addrs()
		if err != nil {
			log.Warnf("netutil: could not get addresses for interface %s: %v", iface.Name, err)
			continue
		}
		for _, addr := range ifaddrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || !ip.IsGlobalUnicast() {
				continue
			}
			if ip.To4() != nil {
				return ip
			}
			if v6 == nil {
				v6 = ip
			}
		}
	}
	return v6
}
