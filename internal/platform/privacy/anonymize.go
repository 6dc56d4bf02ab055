// Package privacy masks client identifiers before they reach logs.
package privacy

import (
	"net"
	"net/http"
	"net/netip"
)

// AnonymizeIP truncates ip to its /24 (IPv4) or /48 (IPv6) network.
// Empty input yields "unknown" and unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// RemoteIP returns the anonymized address of the peer that sent r.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return AnonymizeIP(host)
}
