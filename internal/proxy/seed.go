package proxy

import (
	"fmt"
	"os"

	"github.com/woozymasta/scpsl/pkg/scpsl"
	"gopkg.in/yaml.v3"
)

// Seed is the server set the proxy serves in mock mode. The YAML uses the
// human-readable wire spellings for dates and counts; text in info is plain,
// not base64.
type Seed struct {
	Servers  []scpsl.Server
	Cooldown uint64
}

type seedFile struct {
	Cooldown uint64       `yaml:"cooldown"`
	Servers  []seedServer `yaml:"servers"`
}

type seedServer struct {
	ID           uint64       `yaml:"id"`
	Port         uint16       `yaml:"port"`
	LastOnline   string       `yaml:"last_online"`
	Players      string       `yaml:"players"`
	Info         string       `yaml:"info"`
	FriendlyFire *bool        `yaml:"friendly_fire"`
	Whitelist    *bool        `yaml:"whitelist"`
	Modded       *bool        `yaml:"modded"`
	Mods         *uint64      `yaml:"mods"`
	Suppress     *bool        `yaml:"suppress"`
	AutoSuppress *bool        `yaml:"auto_suppress"`
	PlayerList   []seedPlayer `yaml:"player_list"`
}

type seedPlayer struct {
	ID       string `yaml:"id"`
	Nickname string `yaml:"nickname"`
}

// LoadSeed reads and validates a YAML seed file. Date and count fields are
// checked with the same parsers the wire decoder uses, so a seed that loads
// will also encode.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seed := &Seed{Cooldown: file.Cooldown}
	if seed.Cooldown == 0 {
		seed.Cooldown = 60
	}

	for i, fs := range file.Servers {
		srv, err := fs.server()
		if err != nil {
			return nil, fmt.Errorf("seed server %d: %w", i, err)
		}
		seed.Servers = append(seed.Servers, srv)
	}

	return seed, nil
}

func (fs seedServer) server() (scpsl.Server, error) {
	srv := scpsl.Server{
		ID:           fs.ID,
		Port:         fs.Port,
		FriendlyFire: fs.FriendlyFire,
		Whitelist:    fs.Whitelist,
		Modded:       fs.Modded,
		Mods:         fs.Mods,
		Suppress:     fs.Suppress,
		AutoSuppress: fs.AutoSuppress,
	}

	if fs.LastOnline != "" {
		date, err := scpsl.ParseDate(fs.LastOnline)
		if err != nil {
			return scpsl.Server{}, err
		}
		srv.LastOnline = &date
	}

	if fs.Players != "" {
		count, err := scpsl.ParsePlayerCount(fs.Players)
		if err != nil {
			return scpsl.Server{}, err
		}
		srv.Players = &count
	}

	if fs.Info != "" {
		info := fs.Info
		srv.Info = &info
	}

	if fs.PlayerList != nil {
		players := make([]scpsl.Player, 0, len(fs.PlayerList))
		for _, fp := range fs.PlayerList {
			player := scpsl.Player{ID: fp.ID}
			if fp.Nickname != "" {
				nickname := fp.Nickname
				player.Nickname = &nickname
			}
			players = append(players, player)
		}
		srv.PlayerList = players
	}

	return srv, nil
}

// Response builds the mock answer for a parameter set: every seed server,
// narrowed down to the fields the caller actually requested.
func (s *Seed) Response(params scpsl.ServerInfoParams) scpsl.Response {
	if s == nil {
		return scpsl.Success{Cooldown: 60, Servers: []scpsl.Server{}}
	}

	servers := make([]scpsl.Server, 0, len(s.Servers))
	for _, srv := range s.Servers {
		servers = append(servers, filterServer(srv, params))
	}

	return scpsl.Success{Cooldown: s.Cooldown, Servers: servers}
}

// filterServer keeps only the optional fields whose request flag is set,
// mirroring the presence contract of the real API.
func filterServer(srv scpsl.Server, params scpsl.ServerInfoParams) scpsl.Server {
	out := scpsl.Server{ID: srv.ID, Port: srv.Port}

	if params.LastOnline {
		out.LastOnline = srv.LastOnline
	}
	if params.Players {
		out.Players = srv.Players
	}
	if params.Info {
		out.Info = srv.Info
	}
	if params.Flags {
		out.FriendlyFire = srv.FriendlyFire
		out.Whitelist = srv.Whitelist
		out.Modded = srv.Modded
		out.Mods = srv.Mods
		out.Suppress = srv.Suppress
		out.AutoSuppress = srv.AutoSuppress
	}
	if params.List && srv.PlayerList != nil {
		players := make([]scpsl.Player, 0, len(srv.PlayerList))
		for _, player := range srv.PlayerList {
			if !params.Nicknames {
				player.Nickname = nil
			}
			players = append(players, player)
		}
		out.PlayerList = players
	}

	return out
}
