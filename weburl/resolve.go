package weburl

import (
	"context"
	"fmt"
	"net"

	"gitlab.com/efronlicht/rawget/fetcherr"
	"go.uber.org/zap"
)

// Resolver looks up the IP addresses of a host. *net.Resolver implements it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Address returns the IP address of u's host, looking it up with r the first time it's called
// and returning the cached result every time after that. A nil r means net.DefaultResolver.
//
// A URL with no hostname (or an empty one) resolves to the unspecified address 0.0.0.0 without a lookup;
// that's not an error here, but httpconn.Open will refuse to connect to it.
// A failed lookup leaves u unresolved, so the caller may try again.
func (u *URL) Address(ctx context.Context, r Resolver) (net.IP, error) {
	if u.resolved {
		return u.addr, nil
	}
	if u.Hostname == "" {
		u.addr, u.resolved = net.IPv4zero, true
		return u.addr, nil
	}
	if r == nil {
		r = net.DefaultResolver
	}
	ip, err := findIP(ctx, r, u.Hostname)
	if err != nil {
		return nil, fetcherr.New(fetcherr.Resolution, "weburl.Address", err)
	}
	zap.L().Debug("resolved host", zap.String("host", u.Hostname), zap.Stringer("ip", ip))
	u.addr, u.resolved = ip, true
	return u.addr, nil
}

// Resolved reports whether Address has succeeded on u.
func (u *URL) Resolved() bool { return u.resolved }

// findIP returns the first IPv4 address of host, or the first address of any kind if it has no IPv4 address.
func findIP(ctx context.Context, r Resolver, host string) (net.IP, error) {
	ips, err := r.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("lookup %s: no ips found for known host", host)
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return ips[0], nil
}
