// Package config handles the parsing and validation of application
// configuration from command-line arguments and environment variables.
package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/scpsl/internal/logger"
	"github.com/woozymasta/scpsl/internal/vars"
	"github.com/woozymasta/scpsl/pkg/scpsl"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	API    API           `group:"API Options" namespace:"api" env-namespace:"SCPSL_API"`
	Logger logger.Config `group:"Logger Options" namespace:"log" env-namespace:"SCPSL_LOG"`

	IP    IPCmd    `command:"ip" description:"Print the public IP address reported by the API"`
	Info  InfoCmd  `command:"info" description:"Query server info and print it"`
	Proxy ProxyCmd `command:"proxy" description:"Run a local stats proxy or mock of the API"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// API holds the upstream endpoint configuration.
type API struct {
	IPURL   string        `long:"ip-url" env:"IP_URL" description:"IP endpoint URL" default:"https://api.scpslgame.com/ip.php"`
	InfoURL string        `long:"info-url" env:"INFO_URL" description:"Serverinfo endpoint URL" default:"https://api.scpslgame.com/serverinfo.php"`
	Timeout time.Duration `long:"timeout" env:"TIMEOUT" description:"HTTP request timeout" default:"10s"`
}

// IPCmd holds options of the "ip" command.
type IPCmd struct {
	Country bool  `short:"c" long:"country" description:"Resolve the address country via GeoIP"`
	GeoIP   GeoIP `group:"GeoIP Options" namespace:"geoip" env-namespace:"SCPSL_GEOIP"`
}

// GeoIP holds MaxMind database configuration.
type GeoIP struct {
	Path     string        `long:"path" env:"PATH" description:"Path to MMDB file" default:"scpsl.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// InfoCmd holds options of the "info" command: credentials plus one flag per
// optional response field.
type InfoCmd struct {
	// betteralign:ignore

	ID  uint64 `short:"i" long:"id" env:"SCPSL_ID" description:"Account id"`
	Key string `short:"k" long:"key" env:"SCPSL_KEY" description:"Account API key"`

	LastOnline bool `long:"lo" description:"Request the last online day"`
	Players    bool `long:"players" description:"Request player counts"`
	List       bool `long:"list" description:"Request the player list"`
	Info       bool `long:"info" description:"Request the server description"`
	Pastebin   bool `long:"pastebin" description:"Request the rules pastebin id"`
	Version    bool `long:"server-version" description:"Request the server version"`
	Flags      bool `long:"flags" description:"Request the FF/WL/Modded flags"`
	Nicknames  bool `long:"nicknames" description:"Request player nicknames"`
	Online     bool `long:"online" description:"Request the online state"`

	All  bool `short:"a" long:"all" description:"Request every optional field"`
	JSON bool `long:"json" description:"Print the wire JSON instead of text"`
}

// Params translates the command options into request parameters.
func (c InfoCmd) Params() scpsl.ServerInfoParams {
	return scpsl.ServerInfoParams{
		ID:         c.ID,
		Key:        c.Key,
		LastOnline: c.LastOnline || c.All,
		Players:    c.Players || c.All,
		List:       c.List || c.All,
		Info:       c.Info || c.All,
		Pastebin:   c.Pastebin || c.All,
		Version:    c.Version || c.All,
		Flags:      c.Flags || c.All,
		Nicknames:  c.Nicknames || c.All,
		Online:     c.Online || c.All,
	}
}

// ProxyCmd holds options of the "proxy" command.
type ProxyCmd struct {
	// betteralign:ignore

	Address     string        `short:"l" long:"address" env:"SCPSL_LISTEN_ADDRESS" description:"Proxy listen address" default:":8080"`
	UpstreamID  uint64        `long:"upstream-id" env:"SCPSL_UPSTREAM_ID" description:"Account id used for upstream requests"`
	UpstreamKey string        `long:"upstream-key" env:"SCPSL_UPSTREAM_KEY" description:"API key used for upstream requests (empty enables mock mode)"`
	AllowedKeys []string      `long:"allowed-key" env:"SCPSL_ALLOWED_KEYS" env-delim:"," description:"Keys local callers may use (empty allows any)"`
	AuthToken   string        `short:"t" long:"auth-token" env:"SCPSL_AUTH_TOKEN" description:"Bearer token protecting /stats"`
	Seed        string        `long:"seed" env:"SCPSL_SEED" description:"YAML seed file served in mock mode"`
	DBPath      string        `short:"d" long:"db" env:"SCPSL_DB" description:"Path to the SQLite snapshot database" default:"scpsl.db"`
	MinTTL      time.Duration `long:"min-ttl" env:"SCPSL_MIN_TTL" description:"Lower bound for the response cache TTL" default:"10s"`
	RateCount   int           `long:"rate-count" env:"SCPSL_RATE_COUNT" description:"Per-IP limit: requests count" default:"8"`
	RateWindow  time.Duration `long:"rate-window" env:"SCPSL_RATE_WINDOW" description:"Per-IP limit: window duration" default:"1m"`
	TrustProxy  bool          `long:"trust-proxy" env:"SCPSL_TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Parse reads the configuration from flags and environment variables and
// returns it together with the selected command name. It terminates the
// application on invalid input, on --help and on --version.
func Parse() (*Config, string) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"
	parser.SubcommandsOptional = true

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	return &cfg, parser.Active.Name
}
