// query evaluates JMESPath expressions against the peers of a mesh
package query

import (
	"encoding/json"

	"github.com/jmespath/go-jmespath"
	"github.com/tim-beatham/meshconf/pkg/ip"
	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

// Querier queries a set of peers and returns the result in the
// corresponding encoding
type Querier interface {
	Query(peers *mesh.PeerSet, expression string) ([]byte, error)
}

// JmesQuerier: queries the peers in JMESPath syntax
type JmesQuerier struct {
	keys wg.KeyProvider
}

// QueryError: the expression could not be compiled or evaluated
type QueryError struct {
	Expression string
	Err        error
}

func (e *QueryError) Error() string {
	return "query " + e.Expression + " failed: " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// QueryPeer: represents a single peer in the query
type QueryPeer struct {
	Name       string   `json:"name"`
	Address    []string `json:"address"`
	Endpoint   *string  `json:"endpoint"`
	AllowedIPs []string `json:"allowed_ips"`
	ListenPort *int     `json:"listen_port"`
	FwMark     *string  `json:"fw_mark"`
	DNS        []string `json:"dns"`
	MTU        *int     `json:"mtu"`
	Table      *string  `json:"table"`
	PreUp      *string  `json:"preup"`
	PostUp     *string  `json:"postup"`
	PreDown    *string  `json:"predown"`
	PostDown   *string  `json:"postdown"`
	SaveConfig bool     `json:"save_config"`
	PublicKey  string   `json:"public_key"`
}

// Query: evaluates expression against the list of peers in set order
func (j *JmesQuerier) Query(peers *mesh.PeerSet, expression string) ([]byte, error) {
	compiled, err := jmespath.Compile(expression)

	if err != nil {
		return nil, &QueryError{Expression: expression, Err: err}
	}

	views := make([]any, 0, peers.Len())

	for _, peer := range peers.Peers() {
		view, err := j.toView(peer)

		if err != nil {
			return nil, err
		}

		views = append(views, view)
	}

	result, err := compiled.Search(views)

	if err != nil {
		return nil, &QueryError{Expression: expression, Err: err}
	}

	return json.Marshal(result)
}

// toView: go-jmespath walks maps so the peer is converted through its
// JSON form
func (j *JmesQuerier) toView(peer *mesh.Peer) (map[string]any, error) {
	queryPeer, err := PeerToQueryPeer(peer, j.keys)

	if err != nil {
		return nil, err
	}

	bytes, err := json.Marshal(queryPeer)

	if err != nil {
		return nil, err
	}

	var view map[string]any
	err = json.Unmarshal(bytes, &view)
	return view, err
}

// PeerToQueryPeer: convert the peer into a query abstraction
func PeerToQueryPeer(peer *mesh.Peer, keys wg.KeyProvider) (*QueryPeer, error) {
	publicKey, err := peer.PublicKey(keys)

	if err != nil {
		return nil, err
	}

	queryPeer := &QueryPeer{
		Name:       peer.Name,
		Address:    ip.NetworkStrings(peer.Address),
		AllowedIPs: ip.NetworkStrings(peer.AllowedIPs),
		ListenPort: peer.ListenPort,
		FwMark:     peer.FwMark,
		DNS:        ip.AddressStrings(peer.DNS),
		MTU:        peer.MTU,
		Table:      peer.Table,
		PreUp:      peer.PreUp,
		PostUp:     peer.PostUp,
		PreDown:    peer.PreDown,
		PostDown:   peer.PostDown,
		SaveConfig: peer.SaveConfig,
		PublicKey:  publicKey,
	}

	if peer.Endpoint != nil {
		endpoint := peer.EndpointString()
		queryPeer.Endpoint = &endpoint
	}

	return queryPeer, nil
}

func NewJmesQuerier(keys wg.KeyProvider) Querier {
	return &JmesQuerier{keys: keys}
}
