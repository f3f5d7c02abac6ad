package scpsl

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// DecodeResponse parses a serverinfo payload and converts it to the typed
// Response. Any record that fails to decode rejects the whole response; no
// partial result is ever returned.
func DecodeResponse(data []byte) (Response, error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return raw.domain()
}

// EncodeResponse converts a Response back to the wire JSON, the direction a
// local proxy or mock of the API needs.
func EncodeResponse(r Response) ([]byte, error) {
	raw, err := rawFromResponse(r)
	if err != nil {
		return nil, err
	}

	return json.Marshal(raw)
}

func (raw rawResponse) domain() (Response, error) {
	if raw.Error != nil {
		return Failure{Message: *raw.Error}, nil
	}

	// No error field means the success path, on which cooldown and the
	// server list are mandatory.
	if raw.Cooldown == nil || raw.Servers == nil {
		return nil, fmt.Errorf("%w: success response without cooldown or servers", ErrMalformedPayload)
	}

	servers := make([]Server, 0, len(*raw.Servers))
	for i, rs := range *raw.Servers {
		srv, err := rs.domain()
		if err != nil {
			return nil, fmt.Errorf("server %d: %w", i, err)
		}
		servers = append(servers, srv)
	}

	return Success{Cooldown: *raw.Cooldown, Servers: servers}, nil
}

func (raw rawServer) domain() (Server, error) {
	if raw.ID == nil || raw.Port == nil {
		return Server{}, fmt.Errorf("%w: server record without ID or Port", ErrMalformedPayload)
	}

	srv := Server{
		ID:           *raw.ID,
		Port:         *raw.Port,
		FriendlyFire: raw.FriendlyFire,
		Whitelist:    raw.Whitelist,
		Modded:       raw.Modded,
		Mods:         raw.Mods,
		Suppress:     raw.Suppress,
		AutoSuppress: raw.AutoSuppress,
	}

	if raw.LastOnline != nil {
		date, err := ParseDate(*raw.LastOnline)
		if err != nil {
			return Server{}, err
		}
		srv.LastOnline = &date
	}

	if raw.Players != nil {
		count, err := ParsePlayerCount(*raw.Players)
		if err != nil {
			return Server{}, err
		}
		srv.Players = &count
	}

	if raw.PlayersList != nil {
		players := make([]Player, 0, len(*raw.PlayersList))
		for _, rp := range *raw.PlayersList {
			players = append(players, Player{ID: rp.ID, Nickname: rp.Nickname})
		}
		srv.PlayerList = players
	}

	if raw.Info != nil {
		info, err := decodeInfo(*raw.Info)
		if err != nil {
			return Server{}, err
		}
		srv.Info = &info
	}

	return srv, nil
}

func rawFromResponse(r Response) (rawResponse, error) {
	switch v := r.(type) {
	case Success:
		servers := make([]rawServer, 0, len(v.Servers))
		for _, srv := range v.Servers {
			servers = append(servers, rawFromServer(srv))
		}
		cooldown := v.Cooldown
		return rawResponse{Success: true, Cooldown: &cooldown, Servers: &servers}, nil
	case Failure:
		msg := v.Message
		return rawResponse{Success: false, Error: &msg}, nil
	default:
		return rawResponse{}, fmt.Errorf("%w: nil response", ErrMalformedPayload)
	}
}

func rawFromServer(srv Server) rawServer {
	id, port := srv.ID, srv.Port
	raw := rawServer{
		ID:           &id,
		Port:         &port,
		FriendlyFire: srv.FriendlyFire,
		Whitelist:    srv.Whitelist,
		Modded:       srv.Modded,
		Mods:         srv.Mods,
		Suppress:     srv.Suppress,
		AutoSuppress: srv.AutoSuppress,
	}

	if srv.LastOnline != nil {
		date := FormatDate(*srv.LastOnline)
		raw.LastOnline = &date
	}

	if srv.Players != nil {
		count := srv.Players.String()
		raw.Players = &count
	}

	if srv.PlayerList != nil {
		players := make([]rawPlayer, 0, len(srv.PlayerList))
		for _, p := range srv.PlayerList {
			players = append(players, rawPlayer{ID: p.ID, Nickname: p.Nickname})
		}
		raw.PlayersList = &players
	}

	if srv.Info != nil {
		info := base64.StdEncoding.EncodeToString([]byte(*srv.Info))
		raw.Info = &info
	}

	return raw
}

// ParseDate parses the fixed zero-padded YYYY-MM-DD wire form into a UTC
// day-precision timestamp. Wrong separators, out-of-range months or days and
// trailing characters all fail with ErrDateFormat.
func ParseDate(s string) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateFormat, s)
	}

	return date, nil
}

// FormatDate renders a timestamp in the zero-padded YYYY-MM-DD wire form.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParsePlayerCount splits the "<current>/<max>" wire form on the first
// slash. Both parts must be non-negative integers; current > max is passed
// through untouched, the API occasionally reports it.
func ParsePlayerCount(s string) (PlayerCount, error) {
	current, max, found := strings.Cut(s, "/")
	if !found {
		return PlayerCount{}, fmt.Errorf("%w: %q", ErrCountFormat, s)
	}

	cur, err := strconv.ParseUint(current, 10, 32)
	if err != nil {
		return PlayerCount{}, fmt.Errorf("%w: %q", ErrCountFormat, s)
	}
	mx, err := strconv.ParseUint(max, 10, 32)
	if err != nil {
		return PlayerCount{}, fmt.Errorf("%w: %q", ErrCountFormat, s)
	}

	return PlayerCount{Current: uint32(cur), Max: uint32(mx)}, nil
}

// String renders the count in the "<current>/<max>" wire form, no padding.
func (c PlayerCount) String() string {
	return strconv.FormatUint(uint64(c.Current), 10) + "/" + strconv.FormatUint(uint64(c.Max), 10)
}

func decodeInfo(s string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: info is not valid utf-8", ErrEncoding)
	}

	return string(decoded), nil
}
