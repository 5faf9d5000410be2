package registry

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/tim-beatham/meshconf/pkg/lib"
	logging "github.com/tim-beatham/meshconf/pkg/log"
	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/render"
	"github.com/tim-beatham/meshconf/pkg/wg"
	"golang.org/x/sys/unix"
)

// Registry is the persistent set of peers. Every operation is a
// transaction against the document at Path: writers hold an exclusive
// lock for the whole read-modify-write, readers a shared one.
type Registry struct {
	path        string
	keys        wg.KeyProvider
	strict      bool
	idGenerator lib.IdGenerator
	renderer    render.MeshRenderer
}

type RegistryParams struct {
	// Path of the JSON document, created on the first write
	Path string
	Keys wg.KeyProvider
	// Strict fails on a corrupt document instead of treating it as empty
	Strict      bool
	IdGenerator lib.IdGenerator
	// Renderer defaults to the wg-quick renderer
	Renderer render.MeshRenderer
}

func NewRegistry(params *RegistryParams) *Registry {
	registry := &Registry{
		path:        params.Path,
		keys:        params.Keys,
		strict:      params.Strict,
		idGenerator: params.IdGenerator,
		renderer:    params.Renderer,
	}

	if registry.keys == nil {
		registry.keys = wg.NewKeyProvider()
	}

	if registry.idGenerator == nil {
		registry.idGenerator = &lib.UUIDGenerator{}
	}

	if registry.renderer == nil {
		registry.renderer = render.NewWgQuickRenderer(registry.keys)
	}

	return registry
}

// Path of the backing document
func (r *Registry) Path() string {
	return r.path
}

// Keys is the key provider peers are built and rendered with
func (r *Registry) Keys() wg.KeyProvider {
	return r.keys
}

// AddPeer inserts peer. Fails with mesh.DuplicateNameError if the name
// is taken.
func (r *Registry) AddPeer(peer *mesh.Peer) error {
	return r.update("add "+peer.Name, func(peers *mesh.PeerSet) error {
		return peers.Add(peer)
	})
}

// UpdatePeer replaces the peer with the same name. Fails with
// mesh.NotFoundError if there is none.
func (r *Registry) UpdatePeer(peer *mesh.Peer) error {
	return r.update("update "+peer.Name, func(peers *mesh.PeerSet) error {
		return peers.Replace(peer)
	})
}

// DeletePeer removes the named peer. Fails with mesh.NotFoundError if
// there is none.
func (r *Registry) DeletePeer(name string) error {
	return r.update("delete "+name, func(peers *mesh.PeerSet) error {
		return peers.Remove(name)
	})
}

// ListPeers returns the named peers, or every peer if names is empty
func (r *Registry) ListPeers(names ...string) (*mesh.PeerSet, error) {
	peers, err := r.Snapshot()

	if err != nil {
		return nil, err
	}

	return peers.Filter(names...)
}

// Snapshot reads the current set of peers
func (r *Registry) Snapshot() (*mesh.PeerSet, error) {
	id, err := r.idGenerator.GetId()

	if err != nil {
		return nil, err
	}

	file, err := os.Open(r.path)

	if errors.Is(err, fs.ErrNotExist) {
		logging.Log.WriteDebugf("[%s] registry %s does not exist yet", id, r.path)
		return mesh.NewPeerSet(), nil
	}

	if err != nil {
		return nil, &UnreadableDocumentError{Path: r.path, Err: err}
	}

	defer file.Close()

	lock, err := lockFile(file, unix.LOCK_SH)

	if err != nil {
		return nil, err
	}

	defer lock.Unlock()

	return r.load(id, file)
}

// GenerateConfig renders the named peers (all if names is empty) and
// writes one <name>.conf per peer into outputDir
func (r *Registry) GenerateConfig(outputDir string, names ...string) ([]render.Document, error) {
	documents, err := r.RenderConfig(names...)

	if err != nil {
		return nil, err
	}

	if err := render.WriteDocuments(outputDir, documents); err != nil {
		return nil, err
	}

	return documents, nil
}

// RenderConfig renders the named peers without writing them
func (r *Registry) RenderConfig(names ...string) ([]render.Document, error) {
	peers, err := r.Snapshot()

	if err != nil {
		return nil, err
	}

	return r.renderer.Render(peers, names...)
}

// update runs apply against the stored peers under the exclusive lock
// and writes the result back. Nothing is written if apply fails.
func (r *Registry) update(operation string, apply func(peers *mesh.PeerSet) error) error {
	id, err := r.idGenerator.GetId()

	if err != nil {
		return err
	}

	file, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0600)

	if err != nil {
		return &UnreadableDocumentError{Path: r.path, Err: err}
	}

	defer file.Close()

	logging.Log.WriteDebugf("[%s] waiting for lock on %s", id, r.path)
	lock, err := lockFile(file, unix.LOCK_EX)

	if err != nil {
		return err
	}

	defer lock.Unlock()

	peers, err := r.load(id, file)

	if err != nil {
		return err
	}

	if err := apply(peers); err != nil {
		logging.Log.WriteDebugf("[%s] %s failed: %s", id, operation, err.Error())
		return err
	}

	data, err := mesh.EncodeDocument(peers, r.keys)

	if err != nil {
		return err
	}

	if err := r.write(file, data); err != nil {
		return err
	}

	logging.Log.WriteInfof("[%s] %s: registry %s now holds %d peers", id, operation, r.path, peers.Len())
	return nil
}

// load decodes the document. A corrupt document is reported and treated
// as empty unless the registry is strict.
func (r *Registry) load(id string, file *os.File) (*mesh.PeerSet, error) {
	data, err := io.ReadAll(file)

	if err == nil {
		var peers *mesh.PeerSet
		peers, err = mesh.DecodeDocument(data, r.keys)

		if err == nil {
			return peers, nil
		}
	}

	corrupt := &CorruptDocumentError{Path: r.path, Err: err}

	if r.strict {
		return nil, corrupt
	}

	logging.Log.WriteWarnf("[%s] %s, treating it as empty", id, corrupt.Error())
	return mesh.NewPeerSet(), nil
}

// write replaces the contents of file from offset zero
func (r *Registry) write(file *os.File, data []byte) error {
	if _, err := file.WriteAt(data, 0); err != nil {
		return err
	}

	if err := file.Truncate(int64(len(data))); err != nil {
		return err
	}

	return file.Sync()
}
