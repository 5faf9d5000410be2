package main

import (
	"fmt"
	"io"

	"github.com/tim-beatham/meshconf/pkg/api"
	"github.com/tim-beatham/meshconf/pkg/conf"
	"github.com/tim-beatham/meshconf/pkg/display"
	graph "github.com/tim-beatham/meshconf/pkg/dot"
	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/query"
	"github.com/tim-beatham/meshconf/pkg/registry"
)

// meshCli runs a single command against the registry
type meshCli struct {
	conf     *conf.Configuration
	registry *registry.Registry
	out      io.Writer
}

func newMeshCli(configuration *conf.Configuration, out io.Writer) *meshCli {
	return &meshCli{
		conf: configuration,
		registry: registry.NewRegistry(&registry.RegistryParams{
			Path:   configuration.Database,
			Strict: configuration.StrictDatabase,
		}),
		out: out,
	}
}

func optionalString(value *string) *string {
	if *value == "" {
		return nil
	}

	return value
}

func optionalInt(value *int) *int {
	if *value == 0 {
		return nil
	}

	return value
}

func (c *meshCli) toPeer(flags *peerFlags) (*mesh.Peer, error) {
	listenPort := optionalInt(flags.listenPort)

	if listenPort == nil {
		listenPort = &c.conf.DefaultListenPort
	}

	return mesh.NewPeer(mesh.PeerParams{
		Name:       *flags.name,
		Address:    *flags.address,
		Endpoint:   *flags.endpoint,
		AllowedIPs: *flags.allowedIPs,
		ListenPort: listenPort,
		FwMark:     optionalString(flags.fwMark),
		PrivateKey: *flags.privateKey,
		DNS:        *flags.dns,
		MTU:        optionalInt(flags.mtu),
		Table:      optionalString(flags.table),
		PreUp:      optionalString(flags.preUp),
		PostUp:     optionalString(flags.postUp),
		PreDown:    optionalString(flags.preDown),
		PostDown:   optionalString(flags.postDown),
		SaveConfig: *flags.saveConfig,
	}, c.registry.Keys())
}

func (c *meshCli) addPeer(flags *peerFlags) error {
	peer, err := c.toPeer(flags)

	if err != nil {
		return err
	}

	return c.registry.AddPeer(peer)
}

func (c *meshCli) updatePeer(flags *peerFlags) error {
	peer, err := c.toPeer(flags)

	if err != nil {
		return err
	}

	return c.registry.UpdatePeer(peer)
}

func (c *meshCli) deletePeer(name string) error {
	return c.registry.DeletePeer(name)
}

func (c *meshCli) showPeers(names []string, style string, simplify bool, expression string) error {
	peers, err := c.registry.ListPeers(names...)

	if err != nil {
		return err
	}

	if expression != "" {
		result, err := query.NewJmesQuerier(c.registry.Keys()).Query(peers, expression)

		if err != nil {
			return err
		}

		fmt.Fprintln(c.out, string(result))
		return nil
	}

	return display.Print(c.out, display.Style(style), peers, c.registry.Keys(), simplify)
}

func (c *meshCli) genConfig(names []string, output string) error {
	if output == "" {
		output = c.conf.Output
	}

	_, err := c.registry.GenerateConfig(output, names...)
	return err
}

func (c *meshCli) showGraph() error {
	peers, err := c.registry.ListPeers()

	if err != nil {
		return err
	}

	dot, err := graph.NewMeshGraphConverter(peers).Generate()

	if err != nil {
		return err
	}

	fmt.Fprint(c.out, dot)
	return nil
}

func (c *meshCli) serve(address string) error {
	if address == "" {
		address = c.conf.ApiAddress
	}

	server := api.NewMeshServer(c.registry, api.ApiServerConf{
		DefaultListenPort: c.conf.DefaultListenPort,
	})

	return server.Run(address)
}
