package api

import "github.com/tim-beatham/meshconf/pkg/mesh"

// PeerRequest: body of POST /peers and PUT /peers/:name. On PUT the name
// is taken from the path.
type PeerRequest struct {
	Name       string   `json:"name"`
	Address    []string `json:"address" binding:"required,min=1"`
	Endpoint   string   `json:"endpoint"`
	AllowedIPs []string `json:"allowed_ips"`
	ListenPort *int     `json:"listen_port" binding:"omitempty,gte=1,lte=65535"`
	FwMark     *string  `json:"fw_mark"`
	PrivateKey string   `json:"private_key"`
	DNS        []string `json:"dns"`
	MTU        *int     `json:"mtu" binding:"omitempty,gte=576,lte=65535"`
	Table      *string  `json:"table"`
	PreUp      *string  `json:"preup"`
	PostUp     *string  `json:"postup"`
	PreDown    *string  `json:"predown"`
	PostDown   *string  `json:"postdown"`
	SaveConfig bool     `json:"save_config"`
}

func (r *PeerRequest) toParams() mesh.PeerParams {
	return mesh.PeerParams{
		Name:       r.Name,
		Address:    r.Address,
		Endpoint:   r.Endpoint,
		AllowedIPs: r.AllowedIPs,
		ListenPort: r.ListenPort,
		FwMark:     r.FwMark,
		PrivateKey: r.PrivateKey,
		DNS:        r.DNS,
		MTU:        r.MTU,
		Table:      r.Table,
		PreUp:      r.PreUp,
		PostUp:     r.PostUp,
		PreDown:    r.PreDown,
		PostDown:   r.PostDown,
		SaveConfig: r.SaveConfig,
	}
}

type ApiServerConf struct {
	// DefaultListenPort is applied to created peers without a listen port
	DefaultListenPort int
}
