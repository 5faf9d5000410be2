package mesh

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/tim-beatham/meshconf/pkg/ip"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func getPeerParams(name string, address ...string) PeerParams {
	return PeerParams{
		Name:       name,
		Address:    address,
		ListenPort: intPtr(51820),
	}
}

func TestNewPeerGeneratesPrivateKey(t *testing.T) {
	keys := &wg.KeyProviderStub{}
	peer, err := NewPeer(getPeerParams("alice", "10.0.0.1/24"), keys)

	if err != nil {
		t.Fatal(err)
	}

	if peer.PrivateKey == "" {
		t.Fatal(`private key should have been generated`)
	}

	if peer.Address[0].String() != "10.0.0.1/24" {
		t.Fatalf(`expected 10.0.0.1/24 got %s`, peer.Address[0].String())
	}
}

func TestNewPeerKeepsSuppliedPrivateKey(t *testing.T) {
	params := getPeerParams("alice", "10.0.0.1/32")
	params.PrivateKey = "alicekey"

	peer, err := NewPeer(params, &wg.KeyProviderStub{})

	if err != nil {
		t.Fatal(err)
	}

	if peer.PrivateKey != "alicekey" {
		t.Fatalf(`expected supplied key got %s`, peer.PrivateKey)
	}
}

func TestNewPeerInvalidPrivateKey(t *testing.T) {
	params := getPeerParams("alice", "10.0.0.1/32")
	params.PrivateKey = "not a key"

	_, err := NewPeer(params, &wg.KeyProviderStub{})

	var keyErr *wg.KeyDerivationError

	if !errors.As(err, &keyErr) {
		t.Fatalf(`expected KeyDerivationError got %v`, err)
	}
}

func TestNewPeerValidation(t *testing.T) {
	cases := map[string]PeerParams{
		"no name":         {Address: []string{"10.0.0.1/32"}},
		"no address":      {Name: "alice"},
		"empty address":   {Name: "alice", Address: []string{""}},
		"path separator":  {Name: "../alice", Address: []string{"10.0.0.1/32"}},
		"newline":         {Name: "a\n[Peer]", Address: []string{"10.0.0.1/32"}},
		"carriage return": {Name: "alice\r", Address: []string{"10.0.0.1/32"}},
		"tab":             {Name: "al\tice", Address: []string{"10.0.0.1/32"}},
		"bad port":        {Name: "alice", Address: []string{"10.0.0.1/32"}, ListenPort: intPtr(0)},
		"bad mtu":         {Name: "alice", Address: []string{"10.0.0.1/32"}, MTU: intPtr(100)},
	}

	for name, params := range cases {
		_, err := NewPeer(params, &wg.KeyProviderStub{})

		var invalid *InvalidPeerError

		if !errors.As(err, &invalid) {
			t.Fatalf(`%s: expected InvalidPeerError got %v`, name, err)
		}
	}
}

func TestNewPeerParseErrors(t *testing.T) {
	cases := map[string]PeerParams{
		"address":    {Name: "a", Address: []string{"10.0.0.300/24"}},
		"allowedips": {Name: "a", Address: []string{"10.0.0.1/32"}, AllowedIPs: []string{"nope"}},
		"dns":        {Name: "a", Address: []string{"10.0.0.1/32"}, DNS: []string{"10.0.0.0/8"}},
		"endpoint":   {Name: "a", Address: []string{"10.0.0.1/32"}, Endpoint: "host:port"},
	}

	for name, params := range cases {
		_, err := NewPeer(params, &wg.KeyProviderStub{})

		var parseErr *ip.ParseError

		if !errors.As(err, &parseErr) {
			t.Fatalf(`%s: expected ParseError got %v`, name, err)
		}
	}
}

func TestNewPeerDNSDoesNotTouchAddress(t *testing.T) {
	params := getPeerParams("alice", "10.0.0.1/32")
	params.DNS = []string{"1.1.1.1"}

	peer, err := NewPeer(params, &wg.KeyProviderStub{})

	if err != nil {
		t.Fatal(err)
	}

	if len(peer.Address) != 1 || peer.Address[0].String() != "10.0.0.1/32" {
		t.Fatalf(`address should be unchanged got %s`, ip.JoinNetworks(peer.Address))
	}

	if ip.JoinAddresses(peer.DNS) != "1.1.1.1" {
		t.Fatalf(`expected dns 1.1.1.1 got %s`, ip.JoinAddresses(peer.DNS))
	}
}

func TestPublicKeyFollowsPrivateKey(t *testing.T) {
	keys := &wg.KeyProviderStub{}
	params := getPeerParams("alice", "10.0.0.1/32")
	params.PrivateKey = "first"

	peer, _ := NewPeer(params, keys)
	before, _ := peer.PublicKey(keys)

	rotated, err := peer.WithPrivateKey("second", keys)

	if err != nil {
		t.Fatal(err)
	}

	after, _ := rotated.PublicKey(keys)

	if before != "pub-first" || after != "pub-second" {
		t.Fatalf(`unexpected public keys %s %s`, before, after)
	}

	peer.PrivateKey = "third"
	current, _ := peer.PublicKey(keys)

	if current != "pub-third" {
		t.Fatalf(`public key must be derived from the current private key got %s`, current)
	}
}

func TestReachableNetworks(t *testing.T) {
	params := getPeerParams("alice", "10.0.0.1/32")
	params.AllowedIPs = []string{"192.168.1.0/24"}

	peer, _ := NewPeer(params, &wg.KeyProviderStub{})

	if ip.JoinNetworks(peer.ReachableNetworks()) != "10.0.0.1/32, 192.168.1.0/24" {
		t.Fatalf(`unexpected networks %s`, ip.JoinNetworks(peer.ReachableNetworks()))
	}

	if len(peer.Address) != 1 {
		t.Fatalf(`address should not be modified`)
	}
}

func TestEndpointString(t *testing.T) {
	keys := &wg.KeyProviderStub{}

	params := getPeerParams("alice", "10.0.0.1/32")
	params.Endpoint = "203.0.113.5"
	params.ListenPort = intPtr(4000)
	withListenPort, _ := NewPeer(params, keys)

	params.ListenPort = nil
	withoutListenPort, _ := NewPeer(params, keys)

	params.Endpoint = "203.0.113.5:5000"
	params.ListenPort = intPtr(4000)
	explicit, _ := NewPeer(params, keys)

	if withListenPort.EndpointString() != "203.0.113.5:4000" {
		t.Fatalf(`expected listen port fallback got %s`, withListenPort.EndpointString())
	}

	if withoutListenPort.EndpointString() != "203.0.113.5:51820" {
		t.Fatalf(`expected default port got %s`, withoutListenPort.EndpointString())
	}

	if explicit.EndpointString() != "203.0.113.5:5000" {
		t.Fatalf(`expected explicit port got %s`, explicit.EndpointString())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	params := getPeerParams("alice", "10.0.0.1/32")
	params.Table = strPtr("off")
	peer, _ := NewPeer(params, &wg.KeyProviderStub{})

	clone := peer.Clone()
	*clone.Table = "auto"
	clone.Address[0] = netip.MustParsePrefix("10.9.9.9/32")

	if *peer.Table != "off" {
		t.Fatalf(`clone shares table with the original`)
	}

	if peer.Address[0].String() != "10.0.0.1/32" {
		t.Fatalf(`clone shares addresses with the original`)
	}
}
