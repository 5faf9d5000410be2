package render

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func mustPeer(t *testing.T, params mesh.PeerParams) *mesh.Peer {
	t.Helper()

	peer, err := mesh.NewPeer(params, &wg.KeyProviderStub{})

	if err != nil {
		t.Fatal(err)
	}

	return peer
}

// getAliceAndBob: alice has a public endpoint, bob sits behind NAT
func getAliceAndBob(t *testing.T) *mesh.PeerSet {
	peers := mesh.NewPeerSet()
	peers.Add(mustPeer(t, mesh.PeerParams{
		Name:       "alice",
		Address:    []string{"10.0.0.1/32"},
		Endpoint:   "203.0.113.5",
		ListenPort: intPtr(51820),
		PrivateKey: "alicekey",
	}))
	peers.Add(mustPeer(t, mesh.PeerParams{
		Name:       "bob",
		Address:    []string{"10.0.0.2/32"},
		PrivateKey: "bobkey",
	}))

	return peers
}

func TestRenderAliceAndBob(t *testing.T) {
	renderer := NewWgQuickRenderer(&wg.KeyProviderStub{})

	documents, err := renderer.Render(getAliceAndBob(t))

	if err != nil {
		t.Fatal(err)
	}

	if len(documents) != 2 {
		t.Fatalf(`expected 2 documents got %d`, len(documents))
	}

	expectedAlice := "[Interface]\n" +
		"# Name: alice\n" +
		"Address = 10.0.0.1/32\n" +
		"PrivateKey = alicekey\n" +
		"ListenPort = 51820\n" +
		"\n" +
		"[Peer]\n" +
		"# Name: bob\n" +
		"PublicKey = pub-bobkey\n" +
		"AllowedIPs = 10.0.0.2/32\n"

	expectedBob := "[Interface]\n" +
		"# Name: bob\n" +
		"Address = 10.0.0.2/32\n" +
		"PrivateKey = bobkey\n" +
		"\n" +
		"[Peer]\n" +
		"# Name: alice\n" +
		"PublicKey = pub-alicekey\n" +
		"Endpoint = 203.0.113.5:51820\n" +
		"AllowedIPs = 10.0.0.1/32\n"

	if documents[0].FileName != "alice.conf" || documents[0].Contents != expectedAlice {
		t.Fatalf(`unexpected alice.conf:\n%s`, documents[0].Contents)
	}

	if documents[1].FileName != "bob.conf" || documents[1].Contents != expectedBob {
		t.Fatalf(`unexpected bob.conf:\n%s`, documents[1].Contents)
	}
}

func TestRenderInterfaceOptionalFields(t *testing.T) {
	peers := mesh.NewPeerSet()
	peers.Add(mustPeer(t, mesh.PeerParams{
		Name:       "alice",
		Address:    []string{"10.0.0.1/24", "fd00::1/64"},
		ListenPort: intPtr(51821),
		FwMark:     strPtr("0x1"),
		DNS:        []string{"1.1.1.1", "8.8.8.8"},
		MTU:        intPtr(1420),
		Table:      strPtr("off"),
		PreUp:      strPtr("echo preup"),
		PostUp:     strPtr("echo postup"),
		PreDown:    strPtr("echo predown"),
		PostDown:   strPtr("echo postdown"),
		SaveConfig: true,
		PrivateKey: "alicekey",
	}))

	renderer := &WgQuickRenderer{keys: &wg.KeyProviderStub{}}
	alice, _ := peers.Get("alice")

	contents, err := renderer.RenderPeer(peers, alice)

	if err != nil {
		t.Fatal(err)
	}

	expected := "[Interface]\n" +
		"# Name: alice\n" +
		"Address = 10.0.0.1/24, fd00::1/64\n" +
		"PrivateKey = alicekey\n" +
		"ListenPort = 51821\n" +
		"FwMark = 0x1\n" +
		"DNS = 1.1.1.1, 8.8.8.8\n" +
		"MTU = 1420\n" +
		"Table = off\n" +
		"PreUp = echo preup\n" +
		"PostUp = echo postup\n" +
		"PreDown = echo predown\n" +
		"PostDown = echo postdown\n" +
		"SaveConfig = true\n"

	if contents != expected {
		t.Fatalf(`unexpected document:\n%s`, contents)
	}
}

func TestRenderPeerEndpointAndAllowedIPs(t *testing.T) {
	peers := mesh.NewPeerSet()
	peers.Add(mustPeer(t, mesh.PeerParams{Name: "host", Address: []string{"10.0.0.1/32"}, PrivateKey: "hostkey"}))
	peers.Add(mustPeer(t, mesh.PeerParams{
		Name:       "router",
		Address:    []string{"10.0.0.2/32"},
		Endpoint:   "[2001:db8::2]:4000",
		ListenPort: intPtr(51820),
		AllowedIPs: []string{"192.168.0.0/16"},
		PrivateKey: "routerkey",
	}))

	renderer := &WgQuickRenderer{keys: &wg.KeyProviderStub{}}
	host, _ := peers.Get("host")

	contents, _ := renderer.RenderPeer(peers, host)

	if !strings.Contains(contents, "Endpoint = [2001:db8::2]:4000\n") {
		t.Fatalf(`explicit endpoint port should be used:\n%s`, contents)
	}

	if !strings.Contains(contents, "AllowedIPs = 10.0.0.2/32, 192.168.0.0/16\n") {
		t.Fatalf(`allowed ips should include the peer addresses:\n%s`, contents)
	}
}

func TestRenderFullMesh(t *testing.T) {
	peers := mesh.NewPeerSet()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		peers.Add(mustPeer(t, mesh.PeerParams{Name: name, Address: []string{"10.0.0.1/32"}, PrivateKey: name + "key"}))
	}

	documents, err := NewWgQuickRenderer(&wg.KeyProviderStub{}).Render(peers)

	if err != nil {
		t.Fatal(err)
	}

	if len(documents) != peers.Len() {
		t.Fatalf(`expected %d documents got %d`, peers.Len(), len(documents))
	}

	for _, document := range documents {
		sections := strings.Count(document.Contents, "[Peer]")

		if sections != peers.Len()-1 {
			t.Fatalf(`%s: expected %d peer sections got %d`, document.Name, peers.Len()-1, sections)
		}

		if strings.Contains(document.Contents, "# Name: "+document.Name+"\nPublicKey") {
			t.Fatalf(`%s: document lists itself as a peer`, document.Name)
		}
	}
}

func TestRenderSubset(t *testing.T) {
	documents, err := NewWgQuickRenderer(&wg.KeyProviderStub{}).Render(getAliceAndBob(t), "bob")

	if err != nil {
		t.Fatal(err)
	}

	if len(documents) != 1 || documents[0].Name != "bob" {
		t.Fatalf(`expected only bob to be rendered`)
	}

	if !strings.Contains(documents[0].Contents, "# Name: alice") {
		t.Fatalf(`bob should still see alice`)
	}
}

func TestRenderUnknownPeer(t *testing.T) {
	_, err := NewWgQuickRenderer(&wg.KeyProviderStub{}).Render(getAliceAndBob(t), "carol")

	var notFound *mesh.NotFoundError

	if !errors.As(err, &notFound) {
		t.Fatalf(`expected NotFoundError got %v`, err)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	peers := getAliceAndBob(t)
	renderer := NewWgQuickRenderer(&wg.KeyProviderStub{})

	first, _ := renderer.Render(peers)
	second, _ := renderer.Render(peers)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf(`%s differs between renders`, first[i].Name)
		}
	}
}

func TestRenderUsesCurrentPrivateKey(t *testing.T) {
	keys := &wg.KeyProviderStub{}
	peers := getAliceAndBob(t)
	bob, _ := peers.Get("bob")

	rotated, err := bob.WithPrivateKey("newbobkey", keys)

	if err != nil {
		t.Fatal(err)
	}

	peers.Replace(rotated)

	documents, _ := NewWgQuickRenderer(keys).Render(peers, "alice")

	if !strings.Contains(documents[0].Contents, "PublicKey = pub-newbobkey\n") {
		t.Fatalf(`stale public key rendered:\n%s`, documents[0].Contents)
	}
}

func TestWriteDocumentsCreatesDirectory(t *testing.T) {
	output := filepath.Join(t.TempDir(), "nested", "output")
	documents, _ := NewWgQuickRenderer(&wg.KeyProviderStub{}).Render(getAliceAndBob(t))

	if err := WriteDocuments(output, documents); err != nil {
		t.Fatal(err)
	}

	for _, document := range documents {
		contents, err := os.ReadFile(filepath.Join(output, document.FileName))

		if err != nil {
			t.Fatal(err)
		}

		if string(contents) != document.Contents {
			t.Fatalf(`%s was not written correctly`, document.FileName)
		}
	}
}

func TestWriteDocumentsOutputIsAFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "output")

	if err := os.WriteFile(output, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	documents, _ := NewWgQuickRenderer(&wg.KeyProviderStub{}).Render(getAliceAndBob(t))

	err := WriteDocuments(output, documents)

	var conflict *OutputPathConflictError

	if !errors.As(err, &conflict) {
		t.Fatalf(`expected OutputPathConflictError got %v`, err)
	}

	contents, _ := os.ReadFile(output)

	if string(contents) != "not a directory" {
		t.Fatalf(`existing file should be untouched`)
	}
}
