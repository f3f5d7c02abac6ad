package scpsl

import (
	"fmt"
	"net/url"
	"strconv"
)

// ServerInfoParams selects what a serverinfo request should return. The zero
// value requests nothing; only set fields appear in the query string, and
// boolean flags are encoded as the literal "true" or omitted entirely.
type ServerInfoParams struct {
	// Key is the account API key.
	Key string

	// ID is the account id. Zero means unset; the API never assigns it.
	ID uint64

	// LastOnline requests the day each server was last seen ("lo").
	LastOnline bool

	// Players requests the "current/max" player count.
	Players bool

	// List requests the connected player list.
	List bool

	// Info requests the base64 server description.
	Info bool

	// Pastebin requests the server rules pastebin id.
	Pastebin bool

	// Version requests the server version.
	Version bool

	// Flags requests the FF/WL/Modded flag set.
	Flags bool

	// Nicknames requests nicknames in the player list.
	Nicknames bool

	// Online requests the online state of each server.
	Online bool
}

// URL appends the set parameters to the base URL and returns the request
// URL. The base must be a valid absolute URL.
func (p ServerInfoParams) URL(base string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrURLBuild, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute url", ErrURLBuild, base)
	}

	query := u.Query()
	if p.ID != 0 {
		query.Set("id", strconv.FormatUint(p.ID, 10))
	}
	if p.Key != "" {
		query.Set("key", p.Key)
	}

	for _, flag := range []struct {
		name string
		set  bool
	}{
		{"lo", p.LastOnline},
		{"players", p.Players},
		{"list", p.List},
		{"info", p.Info},
		{"pastebin", p.Pastebin},
		{"version", p.Version},
		{"flags", p.Flags},
		{"nicknames", p.Nicknames},
		{"online", p.Online},
	} {
		if flag.set {
			query.Set(flag.name, "true")
		}
	}

	u.RawQuery = query.Encode()

	return u, nil
}
