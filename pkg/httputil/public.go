package httputil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrNonPublicAddress is returned when a [NewPublicClient] client is asked
// to connect to a loopback, private, link-local or otherwise internal
// address.
var ErrNonPublicAddress = errors.New("destination is not a public address")

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPublic reports whether ip is routable on the public internet.
func IsPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.IsValid() || !ip.IsGlobalUnicast() {
		return false
	}
	return !ip.IsPrivate() && !sharedAddressSpace.Contains(ip)
}

// NewPublicClient returns a client that refuses to dial non-public
// addresses. The check runs on the resolved address of every connection,
// redirects included, so DNS names pointing inside the network are refused
// too. Proxies are disabled since they would hide the destination.
func NewPublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: publicOnly}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	tr.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: tr}
}

func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !IsPublic(ip) {
		return fmt.Errorf("%w: %s", ErrNonPublicAddress, ip)
	}
	return nil
}
