package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tim-beatham/meshconf/pkg/ip"
	logging "github.com/tim-beatham/meshconf/pkg/log"
	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

// WgQuickRenderer renders documents in the wg-quick configuration format
type WgQuickRenderer struct {
	keys wg.KeyProvider
}

// Render implements MeshRenderer
func (r *WgQuickRenderer) Render(peers *mesh.PeerSet, names ...string) ([]Document, error) {
	targets, err := peers.Filter(names...)

	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0, targets.Len())

	for _, target := range targets.Peers() {
		contents, err := r.RenderPeer(peers, target)

		if err != nil {
			return nil, err
		}

		documents = append(documents, Document{
			Name:     target.Name,
			FileName: target.Name + ".conf",
			Contents: contents,
		})
	}

	return documents, nil
}

// RenderPeer renders the configuration of host. Every other member of
// peers becomes a [Peer] section in the order of the set.
func (r *WgQuickRenderer) RenderPeer(peers *mesh.PeerSet, host *mesh.Peer) (string, error) {
	var result strings.Builder

	r.writeInterface(&result, host)

	for _, peer := range peers.Peers() {
		if peer.Name == host.Name {
			continue
		}

		if err := r.writePeer(&result, peer); err != nil {
			return "", err
		}
	}

	return result.String(), nil
}

func (r *WgQuickRenderer) writeInterface(result *strings.Builder, host *mesh.Peer) {
	result.WriteString("[Interface]\n")
	result.WriteString(fmt.Sprintf("# Name: %s\n", host.Name))
	writeValue(result, "Address", ip.JoinNetworks(host.Address))
	writeValue(result, "PrivateKey", host.PrivateKey)

	if host.ListenPort != nil {
		writeValue(result, "ListenPort", fmt.Sprint(*host.ListenPort))
	}

	writeOptional(result, "FwMark", host.FwMark)

	if len(host.DNS) != 0 {
		writeValue(result, "DNS", ip.JoinAddresses(host.DNS))
	}

	if host.MTU != nil {
		writeValue(result, "MTU", fmt.Sprint(*host.MTU))
	}

	writeOptional(result, "Table", host.Table)
	writeOptional(result, "PreUp", host.PreUp)
	writeOptional(result, "PostUp", host.PostUp)
	writeOptional(result, "PreDown", host.PreDown)
	writeOptional(result, "PostDown", host.PostDown)

	if host.SaveConfig {
		writeValue(result, "SaveConfig", "true")
	}
}

// writePeer: peers without an endpoint or networks still get a section
func (r *WgQuickRenderer) writePeer(result *strings.Builder, peer *mesh.Peer) error {
	publicKey, err := peer.PublicKey(r.keys)

	if err != nil {
		return fmt.Errorf("peer %s: %w", peer.Name, err)
	}

	result.WriteString("\n[Peer]\n")
	result.WriteString(fmt.Sprintf("# Name: %s\n", peer.Name))
	writeValue(result, "PublicKey", publicKey)

	if peer.Endpoint != nil {
		writeValue(result, "Endpoint", peer.EndpointString())
	}

	if networks := peer.ReachableNetworks(); len(networks) != 0 {
		writeValue(result, "AllowedIPs", ip.JoinNetworks(networks))
	}

	return nil
}

func writeValue(result *strings.Builder, key, value string) {
	result.WriteString(fmt.Sprintf("%s = %s\n", key, value))
}

func writeOptional(result *strings.Builder, key string, value *string) {
	if value != nil {
		writeValue(result, key, *value)
	}
}

// PrepareOutputDir creates path if it does not exist. An existing path
// that is not a directory is an OutputPathConflictError.
func PrepareOutputDir(path string) error {
	info, err := os.Stat(path)

	if err == nil {
		if !info.IsDir() {
			return &OutputPathConflictError{Path: path}
		}

		return nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	logging.Log.WriteInfof("creating output directory: %s", path)
	return os.MkdirAll(path, 0755)
}

// WriteDocuments writes each document to outputDir/<name>.conf replacing
// existing files. The documents contain private keys so they are only
// readable by the owner.
func WriteDocuments(outputDir string, documents []Document) error {
	if err := PrepareOutputDir(outputDir); err != nil {
		return err
	}

	for _, document := range documents {
		path := filepath.Join(outputDir, document.FileName)

		if err := os.WriteFile(path, []byte(document.Contents), 0600); err != nil {
			return err
		}

		logging.Log.WriteDebugf("wrote %s", path)
	}

	return nil
}

func NewWgQuickRenderer(keys wg.KeyProvider) MeshRenderer {
	return &WgQuickRenderer{keys: keys}
}
