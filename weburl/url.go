// package weburl splits a web address into its access method, hostname, port, and path,
// and resolves the hostname to an IP address on demand.
//
// Parsing is deliberately permissive: almost any string is a valid URL, even the empty string.
// Whether the result can actually be fetched is the caller's problem.
package weburl

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"gitlab.com/efronlicht/rawget/fetcherr"
)

// DefaultHTTPPort is the port used when the access method is http and the URL names no port.
const DefaultHTTPPort = 80

// URL is a parsed web address.
// It's created by Parse and mutated only by the first successful call to Address, which caches the result.
// A URL is not safe for concurrent use.
type URL struct {
	Method    string // access method: "http", "ftp", "mailto", etc. Meaningful only if HasMethod.
	HasMethod bool

	Hostname    string // Meaningful only if HasHostname. May be set but empty, as in "http:///x".
	HasHostname bool

	Port int    // 80 for http unless the URL says otherwise; 0 for any other method without an explicit port.
	Path string // "/" if the URL has a method but nothing after the host.

	addr     net.IP // see Address.
	resolved bool
}

// Parse splits raw into its components. The rules, in order:
//
//   - a ':' before the first '/' (or with no '/' at all) ends the access method.
//   - if what follows is "//", the hostname runs up to the next ':' or '/' or the end of the string.
//   - a ':' right after the hostname is followed by a decimal port; only digits are consumed.
//   - the rest is the path, or "/" if nothing is left.
//   - a string with no ':' at all is a relative URL: the whole thing is the path, verbatim.
//
// So "mailto:user@host" has a method and a path but no hostname, and "http:/x" is not absolute.
// The only failure is a port that doesn't fit in 16 bits.
func Parse(raw string) (*URL, error) {
	u := new(URL)
	colon := strings.IndexByte(raw, ':')
	if colon == -1 { // relative URL.
		u.Path = raw
		return u, nil
	}
	var i int // start of whatever we haven't consumed yet
	if slash := strings.IndexByte(raw, '/'); slash == -1 || colon < slash {
		u.Method, u.HasMethod = raw[:colon], true
		if strings.EqualFold(u.Method, "http") {
			u.Port = DefaultHTTPPort
		}
		i = colon + 1
	}
	if strings.HasPrefix(raw[i:], "//") { // absolute URL: a hostname follows.
		start := i + 2
		i = start
		for i < len(raw) && raw[i] != ':' && raw[i] != '/' {
			i++
		}
		u.Hostname, u.HasHostname = raw[start:i], true

		if i < len(raw) && raw[i] == ':' {
			i++
			digits := i
			for i < len(raw) && '0' <= raw[i] && raw[i] <= '9' {
				i++
			}
			port, err := parsePort(raw[digits:i])
			if err != nil {
				return nil, fetcherr.New(fetcherr.Parse, "weburl.Parse", err)
			}
			u.Port = port
		}
	}
	if i == len(raw) {
		u.Path = "/"
	} else {
		u.Path = raw[i:]
	}
	return u, nil
}

// parsePort parses a run of decimal digits. no digits at all is port 0.
func parsePort(digits string) (int, error) {
	if digits == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("port %q: expected an integer in [0, 65535]", digits)
	}
	return int(n), nil
}

// IsHTTP reports whether the access method is http, ignoring case.
func (u *URL) IsHTTP() bool { return u.HasMethod && strings.EqualFold(u.Method, "http") }

// String formats the URL for diagnostics, e.g,
//
//	URL [method: 'http', host: 'example.com (93.184.216.34)', port: 80, path: '/a/b']
//
// Unset fields print as '?', and an unresolved address as ?.?.?.?.
func (u *URL) String() string {
	method, host, addr := "?", "?", "?.?.?.?"
	if u.HasMethod {
		method = u.Method
	}
	if u.HasHostname {
		host = u.Hostname
	}
	if u.resolved {
		addr = u.addr.String()
	}
	return fmt.Sprintf("URL [method: '%s', host: '%s (%s)', port: %d, path: '%s']", method, host, addr, u.Port, u.Path)
}
