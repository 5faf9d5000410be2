// render expands a set of peers into one wg-quick configuration per peer
// describing a full mesh
package render

import (
	"fmt"

	"github.com/tim-beatham/meshconf/pkg/mesh"
)

// OutputPathConflictError: the output path exists and is not a directory
type OutputPathConflictError struct {
	Path string
}

func (e *OutputPathConflictError) Error() string {
	return fmt.Sprintf("output path %s already exists and is not a directory", e.Path)
}

// Document is the rendered configuration of a single peer
type Document struct {
	// Name of the peer the document configures
	Name string
	// FileName is <name>.conf
	FileName string
	Contents string
}

// MeshRenderer renders the configuration of every target peer. Every
// other peer of the set appears as a remote peer in each document.
type MeshRenderer interface {
	// Render renders the named peers, or all peers if names is empty
	Render(peers *mesh.PeerSet, names ...string) ([]Document, error)
}
