package calendarfeed

import (
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var errFeedAddressBlocked = crerr.New("calendar feed address is not publicly routable")

// Ranges netip's predicates leave open: "this network" and shared address space.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
}

// publicDialControl refuses connections to loopback, private, link-local,
// multicast and unspecified addresses. It runs after DNS resolution, so it
// also covers hostnames and redirects that point inward.
func publicDialControl(_, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "parse dial address %q", address), errFeedAddressBlocked)
	}
	addr := addrPort.Addr().Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() {
		return crerr.Mark(crerr.Newf("refusing to dial %s", addr), errFeedAddressBlocked)
	}
	for _, prefix := range blockedPrefixes {
		if prefix.Contains(addr) {
			return crerr.Mark(crerr.Newf("refusing to dial %s", addr), errFeedAddressBlocked)
		}
	}
	return nil
}

// newPublicTransport is http.DefaultTransport without proxy support and with
// a dialer restricted to public addresses.
func newPublicTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicDialControl,
	}).DialContext
	return transport
}
