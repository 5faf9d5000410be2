// api exposes the peer registry over HTTP
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tim-beatham/meshconf/pkg/ip"
	logging "github.com/tim-beatham/meshconf/pkg/log"
	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/registry"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

type MeshServer struct {
	router   *gin.Engine
	registry *registry.Registry
	conf     ApiServerConf
}

// statusOf maps registry errors onto HTTP status codes
func statusOf(err error) int {
	var duplicate *mesh.DuplicateNameError
	var notFound *mesh.NotFoundError
	var invalid *mesh.InvalidPeerError
	var parseErr *ip.ParseError
	var keyErr *wg.KeyDerivationError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &invalid), errors.As(err, &parseErr), errors.As(err, &keyErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *MeshServer) writeError(c *gin.Context, err error) {
	status := statusOf(err)

	if status == http.StatusInternalServerError {
		logging.Log.WriteErrorf(err.Error())
	}

	c.JSON(status, &gin.H{
		"error": err.Error(),
	})
}

func (s *MeshServer) toDocuments(peers *mesh.PeerSet) ([]*mesh.PeerDocument, error) {
	documents := make([]*mesh.PeerDocument, 0, peers.Len())

	for _, peer := range peers.Peers() {
		document, err := peer.ToDocument(s.registry.Keys())

		if err != nil {
			return nil, err
		}

		documents = append(documents, document)
	}

	return documents, nil
}

// GetPeers: lists every peer in registry order
func (s *MeshServer) GetPeers(c *gin.Context) {
	peers, err := s.registry.ListPeers()

	if err != nil {
		s.writeError(c, err)
		return
	}

	documents, err := s.toDocuments(peers)

	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, documents)
}

// GetPeer: returns the peer named in the path
func (s *MeshServer) GetPeer(c *gin.Context) {
	peers, err := s.registry.ListPeers(c.Param("name"))

	if err != nil {
		s.writeError(c, err)
		return
	}

	documents, err := s.toDocuments(peers)

	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, documents[0])
}

func (s *MeshServer) bindPeer(c *gin.Context) (*mesh.Peer, bool) {
	var request PeerRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, &gin.H{
			"error": err.Error(),
		})
		return nil, false
	}

	if name := c.Param("name"); name != "" {
		request.Name = name
	}

	if request.ListenPort == nil && s.conf.DefaultListenPort != 0 {
		listenPort := s.conf.DefaultListenPort
		request.ListenPort = &listenPort
	}

	peer, err := mesh.NewPeer(request.toParams(), s.registry.Keys())

	if err != nil {
		s.writeError(c, err)
		return nil, false
	}

	return peer, true
}

// CreatePeer: adds a new peer
func (s *MeshServer) CreatePeer(c *gin.Context) {
	peer, ok := s.bindPeer(c)

	if !ok {
		return
	}

	if err := s.registry.AddPeer(peer); err != nil {
		s.writeError(c, err)
		return
	}

	document, err := peer.ToDocument(s.registry.Keys())

	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, document)
}

// UpdatePeer: replaces the peer named in the path
func (s *MeshServer) UpdatePeer(c *gin.Context) {
	peer, ok := s.bindPeer(c)

	if !ok {
		return
	}

	if err := s.registry.UpdatePeer(peer); err != nil {
		s.writeError(c, err)
		return
	}

	document, err := peer.ToDocument(s.registry.Keys())

	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, document)
}

// DeletePeer: removes the peer named in the path
func (s *MeshServer) DeletePeer(c *gin.Context) {
	if err := s.registry.DeletePeer(c.Param("name")); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, &gin.H{
		"status": "success",
	})
}

// GetPeerConfig: the wg-quick configuration of the peer named in the path
func (s *MeshServer) GetPeerConfig(c *gin.Context) {
	documents, err := s.registry.RenderConfig(c.Param("name"))

	if err != nil {
		s.writeError(c, err)
		return
	}

	c.String(http.StatusOK, documents[0].Contents)
}

func (s *MeshServer) Run(addr string) error {
	logging.Log.WriteInfof("Running API server on %s", addr)
	return s.router.Run(addr)
}

// Handler: the router, for serving through a custom http.Server
func (s *MeshServer) Handler() http.Handler {
	return s.router
}

func NewMeshServer(registry *registry.Registry, conf ApiServerConf) *MeshServer {
	router := gin.New()

	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: logging.Log.Writer(),
	}), gin.Recovery())

	server := &MeshServer{
		router:   router,
		registry: registry,
		conf:     conf,
	}

	router.GET("/peers", server.GetPeers)
	router.GET("/peers/:name", server.GetPeer)
	router.GET("/peers/:name/config", server.GetPeerConfig)
	router.POST("/peers", server.CreatePeer)
	router.PUT("/peers/:name", server.UpdatePeer)
	router.DELETE("/peers/:name", server.DeletePeer)
	return server
}
