package graph

import (
	"github.com/tim-beatham/meshconf/pkg/mesh"
)

// MeshGraphConverter converts a mesh to a graph
type MeshGraphConverter interface {
	// convert the mesh to textual form
	Generate() (string, error)
}

// MeshDOTConverter: every pair of peers is connected. Peers with a public
// endpoint are drawn as hexagons and networks routed through a peer as
// boxes hanging off it.
type MeshDOTConverter struct {
	peers *mesh.PeerSet
}

func (c *MeshDOTConverter) Generate() (string, error) {
	g := NewGraph("meshconf", GRAPH)
	peers := c.peers.Peers()

	for _, peer := range peers {
		shape := CIRCLE

		if peer.Endpoint != nil {
			shape = HEXAGON
		}

		g.PutNode(peer.Name, peer.Name, shape)
	}

	for i, peer := range peers {
		for _, other := range peers[i+1:] {
			if err := g.AddEdge("", peer.Name, other.Name); err != nil {
				return "", err
			}
		}
	}

	for _, peer := range peers {
		if err := c.graphAllowedIPs(g, peer); err != nil {
			return "", err
		}
	}

	return g.GetDOT()
}

// graphAllowedIPs: the extra networks a peer routes for the mesh
func (c *MeshDOTConverter) graphAllowedIPs(g *RootGraph, peer *mesh.Peer) error {
	for _, network := range peer.AllowedIPs {
		destination := network.String()
		g.PutNode(destination, destination, BOX)

		if err := g.AddEdge("", peer.Name, destination); err != nil {
			return err
		}
	}

	return nil
}

func NewMeshGraphConverter(peers *mesh.PeerSet) MeshGraphConverter {
	return &MeshDOTConverter{peers: peers}
}
