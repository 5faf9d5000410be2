package mesh

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/tim-beatham/meshconf/pkg/ip"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

// PeerParams are the unparsed attributes of a peer as supplied by the
// command line, the HTTP API or the registry document. Pointer fields are
// optional; nil means the attribute is not set.
type PeerParams struct {
	// Name identifies the peer and names its configuration file
	Name string `validate:"required,printascii,excludesall=/\\"`
	// Address are the tunnel addresses of the peer
	Address []string `validate:"min=1,dive,required"`
	// Endpoint is the public address:port other peers connect to
	Endpoint string
	// AllowedIPs are the extra networks routed through the peer
	AllowedIPs []string
	// ListenPort is the WireGuard port of the interface
	ListenPort *int `validate:"omitempty,gte=1,lte=65535"`
	FwMark     *string
	// PrivateKey is generated when empty
	PrivateKey string
	DNS        []string
	MTU        *int `validate:"omitempty,gte=576,lte=65535"`
	Table      *string
	PreUp      *string
	PostUp     *string
	PreDown    *string
	PostDown   *string
	SaveConfig bool
}

// Peer is a single node of the mesh. A Peer is built once by NewPeer and
// must not be mutated afterwards; use the With* methods to derive a
// modified copy.
type Peer struct {
	Name       string
	Address    []netip.Prefix
	Endpoint   *ip.Endpoint
	AllowedIPs []netip.Prefix
	ListenPort *int
	FwMark     *string
	PrivateKey string
	DNS        []netip.Addr
	MTU        *int
	Table      *string
	PreUp      *string
	PostUp     *string
	PreDown    *string
	PostDown   *string
	SaveConfig bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewPeer parses and validates params. A private key is generated with
// keys when params does not carry one; a supplied key must be a valid
// WireGuard key.
func NewPeer(params PeerParams, keys wg.KeyProvider) (*Peer, error) {
	if err := validate.Struct(params); err != nil {
		return nil, &InvalidPeerError{msg: fmt.Sprintf("invalid peer %q: %s", params.Name, err.Error())}
	}

	address, err := ip.ParseNetworks(params.Address...)

	if err != nil {
		return nil, err
	}

	if len(address) == 0 {
		return nil, &InvalidPeerError{msg: fmt.Sprintf("peer %s requires at least one address", params.Name)}
	}

	allowedIPs, err := ip.ParseNetworks(params.AllowedIPs...)

	if err != nil {
		return nil, err
	}

	dns, err := ip.ParseAddresses(params.DNS...)

	if err != nil {
		return nil, err
	}

	peer := &Peer{
		Name:       params.Name,
		Address:    address,
		AllowedIPs: allowedIPs,
		ListenPort: clonePtr(params.ListenPort),
		FwMark:     clonePtr(params.FwMark),
		PrivateKey: params.PrivateKey,
		DNS:        dns,
		MTU:        clonePtr(params.MTU),
		Table:      clonePtr(params.Table),
		PreUp:      clonePtr(params.PreUp),
		PostUp:     clonePtr(params.PostUp),
		PreDown:    clonePtr(params.PreDown),
		PostDown:   clonePtr(params.PostDown),
		SaveConfig: params.SaveConfig,
	}

	if params.Endpoint != "" {
		endpoint, err := ip.ParseEndpoint(params.Endpoint)

		if err != nil {
			return nil, err
		}

		peer.Endpoint = &endpoint
	}

	if peer.PrivateKey == "" {
		peer.PrivateKey, err = keys.GeneratePrivateKey()
	} else {
		_, err = keys.PublicKey(peer.PrivateKey)
	}

	if err != nil {
		return nil, err
	}

	return peer, nil
}

// PublicKey derives the public key from the current private key. The
// value is never cached.
func (p *Peer) PublicKey(keys wg.KeyProvider) (string, error) {
	return keys.PublicKey(p.PrivateKey)
}

// ReachableNetworks: the peer's own addresses followed by its allowed IPs
func (p *Peer) ReachableNetworks() []netip.Prefix {
	networks := make([]netip.Prefix, 0, len(p.Address)+len(p.AllowedIPs))
	networks = append(networks, p.Address...)
	return append(networks, p.AllowedIPs...)
}

// EndpointString renders the endpoint falling back to the listen port and
// then the default port. Empty if the peer has no endpoint.
func (p *Peer) EndpointString() string {
	if p.Endpoint == nil {
		return ""
	}

	fallback := ip.DefaultPort

	if p.ListenPort != nil {
		fallback = *p.ListenPort
	}

	return p.Endpoint.Format(fallback)
}

// Params converts the peer back into its unparsed form
func (p *Peer) Params() PeerParams {
	params := PeerParams{
		Name:       p.Name,
		Address:    ip.NetworkStrings(p.Address),
		AllowedIPs: ip.NetworkStrings(p.AllowedIPs),
		ListenPort: clonePtr(p.ListenPort),
		FwMark:     clonePtr(p.FwMark),
		PrivateKey: p.PrivateKey,
		DNS:        ip.AddressStrings(p.DNS),
		MTU:        clonePtr(p.MTU),
		Table:      clonePtr(p.Table),
		PreUp:      clonePtr(p.PreUp),
		PostUp:     clonePtr(p.PostUp),
		PreDown:    clonePtr(p.PreDown),
		PostDown:   clonePtr(p.PostDown),
		SaveConfig: p.SaveConfig,
	}

	if p.Endpoint != nil {
		text, _ := p.Endpoint.MarshalText()
		params.Endpoint = string(text)
	}

	return params
}

// Clone returns a deep copy of the peer
func (p *Peer) Clone() *Peer {
	clone := *p
	clone.Address = slices.Clone(p.Address)
	clone.AllowedIPs = slices.Clone(p.AllowedIPs)
	clone.DNS = slices.Clone(p.DNS)
	clone.Endpoint = clonePtr(p.Endpoint)
	clone.ListenPort = clonePtr(p.ListenPort)
	clone.FwMark = clonePtr(p.FwMark)
	clone.MTU = clonePtr(p.MTU)
	clone.Table = clonePtr(p.Table)
	clone.PreUp = clonePtr(p.PreUp)
	clone.PostUp = clonePtr(p.PostUp)
	clone.PreDown = clonePtr(p.PreDown)
	clone.PostDown = clonePtr(p.PostDown)
	return &clone
}

// WithPrivateKey returns a copy of the peer using privateKey
func (p *Peer) WithPrivateKey(privateKey string, keys wg.KeyProvider) (*Peer, error) {
	if _, err := keys.PublicKey(privateKey); err != nil {
		return nil, err
	}

	clone := p.Clone()
	clone.PrivateKey = privateKey
	return clone, nil
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}

	c := *v
	return &c
}
