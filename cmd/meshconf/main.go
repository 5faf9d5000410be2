package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/akamensky/argparse"
	"github.com/tim-beatham/meshconf/pkg/conf"
	logging "github.com/tim-beatham/meshconf/pkg/log"
)

const envFile = ".env"

// peerFlags are the peer attributes shared by addpeer and updatepeer
type peerFlags struct {
	name       *string
	address    *[]string
	endpoint   *string
	allowedIPs *[]string
	privateKey *string
	listenPort *int
	fwMark     *string
	dns        *[]string
	mtu        *int
	table      *string
	preUp      *string
	postUp     *string
	preDown    *string
	postDown   *string
	saveConfig *bool
}

func addPeerFlags(cmd *argparse.Command) *peerFlags {
	return &peerFlags{
		name: cmd.String("n", "name", &argparse.Options{
			Required: true,
			Help:     "Name of the peer, also the name of its configuration file",
		}),
		address: cmd.StringList("", "address", &argparse.Options{
			Required: true,
			Help:     "Address of the peer's interface in CIDR notation. May be repeated",
		}),
		endpoint: cmd.String("", "endpoint", &argparse.Options{
			Help: "Publicly routeable address:port other peers connect to",
		}),
		allowedIPs: cmd.StringList("", "allowedips", &argparse.Options{
			Help: "Additional networks routed through the peer. May be repeated",
		}),
		privateKey: cmd.String("", "privatekey", &argparse.Options{
			Help: "WireGuard private key. Generated when not given",
		}),
		listenPort: cmd.Int("", "listenport", &argparse.Options{
			Help: "WireGuard listen port of the interface",
		}),
		fwMark: cmd.String("", "fwmark", &argparse.Options{
			Help: "Firewall mark for outgoing packets",
		}),
		dns: cmd.StringList("", "dns", &argparse.Options{
			Help: "DNS server of the interface. May be repeated",
		}),
		mtu: cmd.Int("", "mtu", &argparse.Options{
			Help: "MTU of the interface",
		}),
		table: cmd.String("", "table", &argparse.Options{
			Help: "Routing table wg-quick adds routes to",
		}),
		preUp: cmd.String("", "preup", &argparse.Options{
			Help: "Command run before the interface is brought up",
		}),
		postUp: cmd.String("", "postup", &argparse.Options{
			Help: "Command run after the interface is brought up",
		}),
		preDown: cmd.String("", "predown", &argparse.Options{
			Help: "Command run before the interface is brought down",
		}),
		postDown: cmd.String("", "postdown", &argparse.Options{
			Help: "Command run after the interface is brought down",
		}),
		saveConfig: cmd.Flag("", "saveconfig", &argparse.Options{
			Help: "Save the interface's runtime state on shutdown",
		}),
	}
}

// commandFirst moves the first command in args directly after the program
// name, since argparse only looks for a command there. Global flags such
// as -d may then appear on either side of it. ok is false when args name
// no command and ask for no help.
func commandFirst(args []string, commands []*argparse.Command) (reordered []string, ok bool) {
	help := false

	for i := 1; i < len(args); i++ {
		if args[i] == "-h" || args[i] == "--help" {
			help = true
		}

		if !slices.ContainsFunc(commands, func(c *argparse.Command) bool { return c.GetName() == args[i] }) {
			continue
		}

		reordered = make([]string, 0, len(args))
		reordered = append(reordered, args[0], args[i])
		reordered = append(reordered, args[1:i]...)
		reordered = append(reordered, args[i+1:]...)
		return reordered, true
	}

	return args, help
}

func run(args []string, stdout, stderr io.Writer) int {
	parser := argparse.NewParser("meshconf",
		"meshconf Generate WireGuard configurations for a full mesh network")

	database := parser.String("d", "database", &argparse.Options{
		Help: "Path of the peer database",
	})
	configPath := parser.String("c", "config", &argparse.Options{
		Help: "Path of the YAML configuration file",
	})

	addPeerCmd := parser.NewCommand("addpeer", "Add a new peer")
	updatePeerCmd := parser.NewCommand("updatepeer", "Replace an existing peer")
	delPeerCmd := parser.NewCommand("delpeer", "Delete an existing peer")
	showPeersCmd := parser.NewCommand("showpeers", "Print peers in the database")
	genConfigCmd := parser.NewCommand("genconfig", "Generate configuration files for the peers")
	showGraphCmd := parser.NewCommand("showgraph", "Convert the mesh into DOT format")
	serveCmd := parser.NewCommand("serve", "Serve the peer database over HTTP")

	addPeer := addPeerFlags(addPeerCmd)
	updatePeer := addPeerFlags(updatePeerCmd)

	var delPeerName *string = delPeerCmd.String("n", "name", &argparse.Options{
		Required: true,
		Help:     "Name of the peer to delete",
	})

	var showPeersNames *[]string = showPeersCmd.StringList("n", "name", &argparse.Options{
		Help: "Only show the named peers. May be repeated",
	})
	var showPeersStyle *string = showPeersCmd.Selector("", "style", []string{"table", "text"}, &argparse.Options{
		Default: "table",
		Help:    "Printing style",
	})
	var showPeersSimplify *bool = showPeersCmd.Flag("s", "simplify", &argparse.Options{
		Help: "Only show attributes that are set for at least one peer",
	})
	var showPeersQuery *string = showPeersCmd.String("q", "query", &argparse.Options{
		Help: "JMESPath query over the peers, printed as JSON",
	})

	var genConfigNames *[]string = genConfigCmd.StringList("n", "name", &argparse.Options{
		Help: "Only generate configurations for the named peers. May be repeated",
	})
	var genConfigOutput *string = genConfigCmd.String("o", "output", &argparse.Options{
		Help: "Directory the configuration files are written to",
	})

	var serveAddress *string = serveCmd.String("l", "listen", &argparse.Options{
		Help: "Address the API server listens on",
	})

	commands := []*argparse.Command{
		addPeerCmd, updatePeerCmd, delPeerCmd, showPeersCmd, genConfigCmd, showGraphCmd, serveCmd,
	}

	args, ok := commandFirst(args, commands)

	if !ok {
		fmt.Fprintln(stderr, "No command specified")
		fmt.Fprintln(stderr, "Use meshconf --help to see available commands")
		return 0
	}

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stderr, parser.Usage(err))
		return 1
	}

	configuration, err := loadConfiguration(*configPath, *database)

	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	logging.SetLogger(logging.NewLogrusLoggerWithOutput(configuration.LogLevel, stderr))
	cli := newMeshCli(configuration, stdout)

	switch {
	case addPeerCmd.Happened():
		err = cli.addPeer(addPeer)
	case updatePeerCmd.Happened():
		err = cli.updatePeer(updatePeer)
	case delPeerCmd.Happened():
		err = cli.deletePeer(*delPeerName)
	case showPeersCmd.Happened():
		err = cli.showPeers(*showPeersNames, *showPeersStyle, *showPeersSimplify, *showPeersQuery)
	case genConfigCmd.Happened():
		err = cli.genConfig(*genConfigNames, *genConfigOutput)
	case showGraphCmd.Happened():
		err = cli.showGraph()
	case serveCmd.Happened():
		err = cli.serve(*serveAddress)
	}

	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	return 0
}

// loadConfiguration: file, then .env and environment, then flags
func loadConfiguration(configPath, database string) (*conf.Configuration, error) {
	configuration, err := conf.ParseConfiguration(configPath)

	if err != nil {
		return nil, err
	}

	if err := conf.ApplyEnvironment(configuration, envFile); err != nil {
		return nil, err
	}

	if database != "" {
		configuration.Database = database
	}

	return configuration, nil
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}
