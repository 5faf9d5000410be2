// display prints peers for humans
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/tim-beatham/meshconf/pkg/ip"
	"github.com/tim-beatham/meshconf/pkg/lib"
	"github.com/tim-beatham/meshconf/pkg/mesh"
	"github.com/tim-beatham/meshconf/pkg/wg"
)

type Style string

const (
	TABLE Style = "table"
	TEXT  Style = "text"
)

// column extracts one attribute of a peer. Unset attributes are empty.
type column struct {
	name  string
	value func(peer *mesh.Peer, publicKey string) string
}

var columns = []column{
	{"name", func(p *mesh.Peer, _ string) string { return p.Name }},
	{"address", func(p *mesh.Peer, _ string) string { return strings.Join(ip.NetworkStrings(p.Address), ",") }},
	{"endpoint", func(p *mesh.Peer, _ string) string { return p.EndpointString() }},
	{"allowed_ips", func(p *mesh.Peer, _ string) string { return strings.Join(ip.NetworkStrings(p.AllowedIPs), ",") }},
	{"listen_port", func(p *mesh.Peer, _ string) string { return intValue(p.ListenPort) }},
	{"fw_mark", func(p *mesh.Peer, _ string) string { return stringValue(p.FwMark) }},
	{"private_key", func(p *mesh.Peer, _ string) string { return p.PrivateKey }},
	{"dns", func(p *mesh.Peer, _ string) string { return strings.Join(ip.AddressStrings(p.DNS), ",") }},
	{"mtu", func(p *mesh.Peer, _ string) string { return intValue(p.MTU) }},
	{"table", func(p *mesh.Peer, _ string) string { return stringValue(p.Table) }},
	{"preup", func(p *mesh.Peer, _ string) string { return stringValue(p.PreUp) }},
	{"postup", func(p *mesh.Peer, _ string) string { return stringValue(p.PostUp) }},
	{"predown", func(p *mesh.Peer, _ string) string { return stringValue(p.PreDown) }},
	{"postdown", func(p *mesh.Peer, _ string) string { return stringValue(p.PostDown) }},
	{"save_config", func(p *mesh.Peer, _ string) string {
		if !p.SaveConfig {
			return ""
		}
		return "true"
	}},
	{"public_key", func(_ *mesh.Peer, publicKey string) string { return publicKey }},
}

func intValue(v *int) string {
	if v == nil {
		return ""
	}

	return strconv.Itoa(*v)
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}

	return *v
}

// rows renders every column of every peer. With simplify, columns empty
// for all peers are dropped; name is always kept.
func rows(peers *mesh.PeerSet, keys wg.KeyProvider, simplify bool) ([]string, [][]string, error) {
	values := make([][]string, 0, peers.Len())

	for _, peer := range peers.Peers() {
		publicKey, err := peer.PublicKey(keys)

		if err != nil {
			return nil, nil, err
		}

		values = append(values, lib.Map(columns, func(c column) string {
			return c.value(peer, publicKey)
		}))
	}

	keep := make([]int, 0, len(columns))

	for i := range columns {
		if i == 0 || !simplify || !emptyColumn(values, i) {
			keep = append(keep, i)
		}
	}

	header := lib.Map(keep, func(i int) string { return columns[i].name })
	body := lib.Map(values, func(row []string) []string {
		return lib.Map(keep, func(i int) string { return row[i] })
	})

	return header, body, nil
}

func emptyColumn(values [][]string, index int) bool {
	for _, row := range values {
		if row[index] != "" {
			return false
		}
	}

	return true
}

// PrintTable writes one row per peer under a header of column names
func PrintTable(w io.Writer, peers *mesh.PeerSet, keys wg.KeyProvider, simplify bool) error {
	header, body, err := rows(peers, keys, simplify)

	if err != nil {
		return err
	}

	t := tabwriter.NewWriter(w, 1, 4, 2, ' ', 0)
	fmt.Fprintln(t, strings.ToUpper(strings.Join(header, "\t")))

	for _, row := range body {
		fmt.Fprintln(t, strings.Join(row, "\t"))
	}

	return t.Flush()
}

// PrintText writes each peer as a block of attribute lines separated by a
// blank line
func PrintText(w io.Writer, peers *mesh.PeerSet, keys wg.KeyProvider, simplify bool) error {
	header, body, err := rows(peers, keys, simplify)

	if err != nil {
		return err
	}

	t := tabwriter.NewWriter(w, 14, 4, 1, ' ', 0)

	for _, row := range body {
		fmt.Fprintf(t, "peer\t%s\n", row[0])

		for i := 1; i < len(header); i++ {
			fmt.Fprintf(t, "%s\t%s\n", header[i], row[i])
		}

		fmt.Fprintln(t)
	}

	return t.Flush()
}

// Print dispatches on style
func Print(w io.Writer, style Style, peers *mesh.PeerSet, keys wg.KeyProvider, simplify bool) error {
	switch style {
	case TABLE:
		return PrintTable(w, peers, keys, simplify)
	case TEXT:
		return PrintText(w, peers, keys, simplify)
	default:
		return fmt.Errorf("unknown style %s", style)
	}
}
