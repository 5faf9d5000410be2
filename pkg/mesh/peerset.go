package mesh

import "slices"

// PeerSet maps peer names to peers. Iteration follows insertion order.
type PeerSet struct {
	order []string
	peers map[string]*Peer
}

func NewPeerSet() *PeerSet {
	return &PeerSet{
		order: make([]string, 0),
		peers: make(map[string]*Peer),
	}
}

// Add inserts the peer. Fails with DuplicateNameError if the name is taken.
func (s *PeerSet) Add(peer *Peer) error {
	if _, exists := s.peers[peer.Name]; exists {
		return &DuplicateNameError{Name: peer.Name}
	}

	s.order = append(s.order, peer.Name)
	s.peers[peer.Name] = peer
	return nil
}

// Replace swaps the peer with the same name keeping its position. Fails
// with NotFoundError if there is no such peer.
func (s *PeerSet) Replace(peer *Peer) error {
	if _, exists := s.peers[peer.Name]; !exists {
		return &NotFoundError{Name: peer.Name}
	}

	s.peers[peer.Name] = peer
	return nil
}

// Remove deletes the named peer. Fails with NotFoundError if absent.
func (s *PeerSet) Remove(name string) error {
	if _, exists := s.peers[name]; !exists {
		return &NotFoundError{Name: name}
	}

	delete(s.peers, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return nil
}

func (s *PeerSet) Get(name string) (*Peer, bool) {
	peer, ok := s.peers[name]
	return peer, ok
}

func (s *PeerSet) Len() int {
	return len(s.order)
}

// Names returns the peer names in insertion order
func (s *PeerSet) Names() []string {
	return slices.Clone(s.order)
}

// Peers returns the peers in insertion order
func (s *PeerSet) Peers() []*Peer {
	peers := make([]*Peer, len(s.order))

	for i, name := range s.order {
		peers[i] = s.peers[name]
	}

	return peers
}

// Filter returns the subset of named peers keeping the set's order. No
// names selects every peer.
func (s *PeerSet) Filter(names ...string) (*PeerSet, error) {
	if len(names) == 0 {
		return s.Clone(), nil
	}

	wanted := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, exists := s.peers[name]; !exists {
			return nil, &NotFoundError{Name: name}
		}

		wanted[name] = struct{}{}
	}

	filtered := NewPeerSet()

	for _, name := range s.order {
		if _, ok := wanted[name]; ok {
			filtered.Add(s.peers[name])
		}
	}

	return filtered, nil
}

// Clone copies the set. Peers are shared since they are immutable.
func (s *PeerSet) Clone() *PeerSet {
	clone := &PeerSet{
		order: slices.Clone(s.order),
		peers: make(map[string]*Peer, len(s.peers)),
	}

	for name, peer := range s.peers {
		clone.peers[name] = peer
	}

	return clone
}
