// mesh provides the peer model of a WireGuard full mesh and the ordered
// collection of peers backing the registry
package mesh

import "fmt"

// DuplicateNameError: a peer with the name already exists
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("peer with name %s already exists", e.Name)
}

// NotFoundError: no peer with the name exists
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("peer with name %s does not exist", e.Name)
}

// InvalidPeerError: the peer attributes failed validation
type InvalidPeerError struct {
	msg string
}

func (e *InvalidPeerError) Error() string {
	return e.msg
}
