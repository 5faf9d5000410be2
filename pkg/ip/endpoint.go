package ip

import (
	"errors"
	"net/netip"
	"strconv"
	"strings"
)

// Endpoint is the public address at which a peer can be reached. A zero
// Port means the endpoint was given without one.
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// ParseEndpoint parses address:port. IPv6 endpoints with a port must use
// the bracketed form [addr]:port. The port may be omitted entirely or left
// empty ("addr:").
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)

	if addr, err := netip.ParseAddr(trimBrackets(s)); err == nil {
		return Endpoint{Addr: addr.Unmap()}, nil
	}

	sep := strings.LastIndex(s, ":")

	if sep < 0 {
		return Endpoint{}, &ParseError{Kind: ENDPOINT, Input: s, Err: errors.New("expected address:port")}
	}

	host, portStr := s[:sep], s[sep+1:]

	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		return Endpoint{}, &ParseError{Kind: ENDPOINT, Input: s, Err: errors.New("IPv6 endpoints must use [address]:port")}
	}

	addr, err := netip.ParseAddr(trimBrackets(host))

	if err != nil {
		return Endpoint{}, &ParseError{Kind: ENDPOINT, Input: s, Err: err}
	}

	endpoint := Endpoint{Addr: addr.Unmap()}

	if portStr == "" {
		return endpoint, nil
	}

	port, err := strconv.ParseUint(portStr, 10, 16)

	if err != nil || port == 0 {
		return Endpoint{}, &ParseError{Kind: ENDPOINT, Input: s, Err: errors.New("port must be between 1 and 65535")}
	}

	endpoint.Port = uint16(port)
	return endpoint, nil
}

// HasPort: true if the endpoint was given an explicit port
func (e Endpoint) HasPort() bool {
	return e.Port != 0
}

// PortOr returns the explicit port or the fallback
func (e Endpoint) PortOr(fallback int) int {
	if e.HasPort() {
		return int(e.Port)
	}

	return fallback
}

// Format renders address:port using fallback when no port was given
func (e Endpoint) Format(fallback int) string {
	return netip.AddrPortFrom(e.Addr, uint16(e.PortOr(fallback))).String()
}

// String renders the endpoint with DefaultPort as the fallback
func (e Endpoint) String() string {
	return e.Format(DefaultPort)
}

// MarshalText stores the endpoint as given, without inventing a port
func (e Endpoint) MarshalText() ([]byte, error) {
	if !e.HasPort() {
		return []byte(e.Addr.String()), nil
	}

	return []byte(netip.AddrPortFrom(e.Addr, e.Port).String()), nil
}

func (e *Endpoint) UnmarshalText(text []byte) error {
	endpoint, err := ParseEndpoint(string(text))

	if err != nil {
		return err
	}

	*e = endpoint
	return nil
}

func trimBrackets(s string) string {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return s[1 : len(s)-1]
	}

	return s
}
