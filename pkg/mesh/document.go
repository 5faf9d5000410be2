package mesh

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tim-beatham/meshconf/pkg/wg"
)

// PeerDocument is the on-disk form of a peer inside the registry document
type PeerDocument struct {
	Name       string   `json:"name"`
	Address    []string `json:"address"`
	Endpoint   *string  `json:"endpoint"`
	AllowedIPs []string `json:"allowed_ips"`
	ListenPort *int     `json:"listen_port"`
	FwMark     *string  `json:"fw_mark"`
	PrivateKey string   `json:"private_key"`
	DNS        []string `json:"dns"`
	MTU        *int     `json:"mtu"`
	Table      *string  `json:"table"`
	PreUp      *string  `json:"preup"`
	PostUp     *string  `json:"postup"`
	PreDown    *string  `json:"predown"`
	PostDown   *string  `json:"postdown"`
	SaveConfig bool     `json:"save_config"`
	// PublicKey is written for reference only and ignored when loading
	PublicKey string `json:"public_key,omitempty"`
}

// ToDocument converts the peer into its document form
func (p *Peer) ToDocument(keys wg.KeyProvider) (*PeerDocument, error) {
	publicKey, err := p.PublicKey(keys)

	if err != nil {
		return nil, err
	}

	params := p.Params()

	doc := &PeerDocument{
		Name:       params.Name,
		Address:    params.Address,
		AllowedIPs: params.AllowedIPs,
		ListenPort: params.ListenPort,
		FwMark:     params.FwMark,
		PrivateKey: params.PrivateKey,
		DNS:        params.DNS,
		MTU:        params.MTU,
		Table:      params.Table,
		PreUp:      params.PreUp,
		PostUp:     params.PostUp,
		PreDown:    params.PreDown,
		PostDown:   params.PostDown,
		SaveConfig: params.SaveConfig,
		PublicKey:  publicKey,
	}

	if params.Endpoint != "" {
		doc.Endpoint = &params.Endpoint
	}

	return doc, nil
}

// ToPeer parses the document. Unlike NewPeer a missing private key is an
// error since a stored peer must keep its identity.
func (d *PeerDocument) ToPeer(keys wg.KeyProvider) (*Peer, error) {
	if d.PrivateKey == "" {
		return nil, &InvalidPeerError{msg: fmt.Sprintf("peer %s has no private key", d.Name)}
	}

	params := PeerParams{
		Name:       d.Name,
		Address:    d.Address,
		AllowedIPs: d.AllowedIPs,
		ListenPort: d.ListenPort,
		FwMark:     d.FwMark,
		PrivateKey: d.PrivateKey,
		DNS:        d.DNS,
		MTU:        d.MTU,
		Table:      d.Table,
		PreUp:      d.PreUp,
		PostUp:     d.PostUp,
		PreDown:    d.PreDown,
		PostDown:   d.PostDown,
		SaveConfig: d.SaveConfig,
	}

	if d.Endpoint != nil {
		params.Endpoint = *d.Endpoint
	}

	return NewPeer(params, keys)
}

const documentIndent = "    "

// EncodeDocument serialises the set as {"peers": {name: peer...}} keeping
// the insertion order of the set
func EncodeDocument(peers *PeerSet, keys wg.KeyProvider) ([]byte, error) {
	var compact bytes.Buffer

	compact.WriteString(`{"peers":{`)

	for i, peer := range peers.Peers() {
		doc, err := peer.ToDocument(keys)

		if err != nil {
			return nil, err
		}

		name, err := marshal(peer.Name)

		if err != nil {
			return nil, err
		}

		value, err := marshal(doc)

		if err != nil {
			return nil, err
		}

		if i > 0 {
			compact.WriteByte(',')
		}

		compact.Write(name)
		compact.WriteByte(':')
		compact.Write(value)
	}

	compact.WriteString(`}}`)

	var indented bytes.Buffer

	if err := json.Indent(&indented, compact.Bytes(), "", documentIndent); err != nil {
		return nil, err
	}

	indented.WriteByte('\n')
	return indented.Bytes(), nil
}

// DecodeDocument parses a registry document. Empty input is an empty
// registry. Peer order follows the order of the keys in the document.
func DecodeDocument(data []byte, keys wg.KeyProvider) (*PeerSet, error) {
	peers := NewPeerSet()

	if len(bytes.TrimSpace(data)) == 0 {
		return peers, nil
	}

	var document struct {
		Peers json.RawMessage `json:"peers"`
	}

	if err := json.Unmarshal(data, &document); err != nil {
		return nil, err
	}

	if len(document.Peers) == 0 || bytes.Equal(document.Peers, []byte("null")) {
		return peers, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(document.Peers))

	if err := expectDelim(decoder, '{'); err != nil {
		return nil, err
	}

	for decoder.More() {
		token, err := decoder.Token()

		if err != nil {
			return nil, err
		}

		name := token.(string)

		var doc PeerDocument

		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("peer %s: %w", name, err)
		}

		if doc.Name == "" {
			doc.Name = name
		}

		if doc.Name != name {
			return nil, fmt.Errorf("peer stored under %s is named %s", name, doc.Name)
		}

		peer, err := doc.ToPeer(keys)

		if err != nil {
			return nil, fmt.Errorf("peer %s: %w", name, err)
		}

		if err := peers.Add(peer); err != nil {
			return nil, err
		}
	}

	return peers, expectDelim(decoder, '}')
}

// marshal leaves hook commands such as "a && b" unescaped
func marshal(v any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

func expectDelim(decoder *json.Decoder, delim json.Delim) error {
	token, err := decoder.Token()

	if err != nil {
		return err
	}

	if d, ok := token.(json.Delim); !ok || d != delim {
		return fmt.Errorf("expected %s in peers object", delim)
	}

	return nil
}
