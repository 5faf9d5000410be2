package ip

import (
	"net/netip"
	"strings"
)

// ParseNetwork parses a network in CIDR form. A bare address is treated as
// a host network (/32 or /128). Host bits are kept so that interface
// addresses such as 10.0.0.1/24 survive unchanged.
func ParseNetwork(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)

	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)

		if err != nil {
			return netip.Prefix{}, &ParseError{Kind: NETWORK, Input: s, Err: err}
		}

		if addr.Zone() != "" {
			return netip.Prefix{}, &ParseError{Kind: NETWORK, Input: s}
		}

		addr = addr.Unmap()
		return netip.PrefixFrom(addr, addr.BitLen()), nil
	}

	prefix, err := netip.ParsePrefix(s)

	if err != nil {
		return netip.Prefix{}, &ParseError{Kind: NETWORK, Input: s, Err: err}
	}

	return prefix, nil
}

// ParseNetworks parses every entry into a network. Entries may themselves
// be comma separated lists.
func ParseNetworks(values ...string) ([]netip.Prefix, error) {
	networks := make([]netip.Prefix, 0, len(values))

	for _, value := range splitList(values) {
		network, err := ParseNetwork(value)

		if err != nil {
			return nil, err
		}

		networks = append(networks, network)
	}

	return networks, nil
}

// ParseAddress parses a single IPv4 or IPv6 address
func ParseAddress(s string) (netip.Addr, error) {
	s = strings.TrimSpace(s)
	addr, err := netip.ParseAddr(s)

	if err != nil {
		return netip.Addr{}, &ParseError{Kind: ADDRESS, Input: s, Err: err}
	}

	return addr.Unmap(), nil
}

// ParseAddresses parses every entry into an address. Entries may be comma
// separated lists.
func ParseAddresses(values ...string) ([]netip.Addr, error) {
	addrs := make([]netip.Addr, 0, len(values))

	for _, value := range splitList(values) {
		addr, err := ParseAddress(value)

		if err != nil {
			return nil, err
		}

		addrs = append(addrs, addr)
	}

	return addrs, nil
}

// JoinNetworks renders networks the way wg-quick expects a list
func JoinNetworks(networks []netip.Prefix) string {
	return strings.Join(NetworkStrings(networks), ", ")
}

// JoinAddresses renders addresses as a wg-quick list
func JoinAddresses(addrs []netip.Addr) string {
	return strings.Join(AddressStrings(addrs), ", ")
}

func NetworkStrings(networks []netip.Prefix) []string {
	values := make([]string, len(networks))

	for i, network := range networks {
		values[i] = network.String()
	}

	return values
}

func AddressStrings(addrs []netip.Addr) []string {
	values := make([]string, len(addrs))

	for i, addr := range addrs {
		values[i] = addr.String()
	}

	return values
}

func splitList(values []string) []string {
	result := make([]string, 0, len(values))

	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}

	return result
}
