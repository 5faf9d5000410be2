// ip provides the typed network, address and endpoint values used to
// describe a mesh peer
package ip

import "fmt"

// DefaultPort is the WireGuard port used when an endpoint does not carry one
const DefaultPort = 51820

type ParseKind string

const (
	NETWORK  ParseKind = "network"
	ADDRESS  ParseKind = "address"
	ENDPOINT ParseKind = "endpoint"
)

// ParseError: input could not be parsed into a network, address or endpoint
type ParseError struct {
	Kind  ParseKind
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
	}

	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Input, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
