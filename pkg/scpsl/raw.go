package scpsl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawResponse mirrors the serverinfo payload exactly as transmitted.
// Optional keys are omitted entirely when absent, never emitted as null.
//
// Historic builds of the API sent the numeric cooldown as a second
// occurrence of the "Success" key; current payloads use "Cooldown".
// Decoding accepts both spellings, encoding always emits "Cooldown".
type rawResponse struct {
	Success  bool         `json:"Success"`
	Error    *string      `json:"Error,omitempty"`
	Cooldown *uint64      `json:"Cooldown,omitempty"`
	Servers  *[]rawServer `json:"Servers,omitempty"`
}

// UnmarshalJSON walks the object token by token so a repeated "Success" key
// can be told apart by value type: bool is the flag, number is the cooldown.
func (r *rawResponse) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	seenSuccess := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}

		switch key {
		case "Success":
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				return err
			}
			var flag bool
			if err := json.Unmarshal(v, &flag); err == nil {
				r.Success = flag
				seenSuccess = true
				break
			}
			var cooldown uint64
			if err := json.Unmarshal(v, &cooldown); err != nil {
				return fmt.Errorf("key %q is neither bool nor cooldown: %w", key, err)
			}
			r.Cooldown = &cooldown
		case "Cooldown":
			var cooldown uint64
			if err := dec.Decode(&cooldown); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			r.Cooldown = &cooldown
		case "Error":
			var msg string
			if err := dec.Decode(&msg); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			r.Error = &msg
		case "Servers":
			var servers []rawServer
			if err := dec.Decode(&servers); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			// A literal null counts as absent; only a real array, empty
			// included, marks the list present.
			if servers != nil {
				r.Servers = &servers
			}
		default:
			// Unknown keys are tolerated for forward compatibility.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	if !seenSuccess {
		return fmt.Errorf("missing required key %q", "Success")
	}

	return nil
}

// rawServer mirrors one entry of the "Servers" array with the wire key
// names. ID and Port are pointers only to detect their absence on decode;
// a valid record always carries both.
type rawServer struct {
	ID           *uint64      `json:"ID"`
	Port         *uint16      `json:"Port"`
	LastOnline   *string      `json:"LastOnline,omitempty"`
	Players      *string      `json:"Players,omitempty"`
	PlayersList  *[]rawPlayer `json:"PlayersList,omitempty"`
	Info         *string      `json:"Info,omitempty"`
	FriendlyFire *bool        `json:"FF,omitempty"`
	Whitelist    *bool        `json:"WL,omitempty"`
	Modded       *bool        `json:"Modded,omitempty"`
	Mods         *uint64      `json:"Mods,omitempty"`
	Suppress     *bool        `json:"Suppress,omitempty"`
	AutoSuppress *bool        `json:"AutoSuppress,omitempty"`
}

// rawPlayer is the untagged wire union of the player list: either a bare
// user id string or an object with "ID" and an optional "Nickname".
type rawPlayer struct {
	Nickname *string
	ID       string
}

type rawPlayerObject struct {
	ID       string  `json:"ID"`
	Nickname *string `json:"Nickname,omitempty"`
}

// UnmarshalJSON discriminates the union by JSON shape: a string token is the
// bare id variant, an object is the id-with-nickname variant. The object
// variant requires its "ID" key; a player without an identifier is not a
// valid record in either shape.
func (p *rawPlayer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		p.Nickname = nil
		return json.Unmarshal(trimmed, &p.ID)
	}

	var obj struct {
		ID       *string `json:"ID"`
		Nickname *string `json:"Nickname"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	if obj.ID == nil {
		return fmt.Errorf("%w: player object without ID", ErrMalformedPayload)
	}
	p.ID = *obj.ID
	p.Nickname = obj.Nickname

	return nil
}

// MarshalJSON re-derives the wire variant: bare string when the nickname is
// absent, object otherwise.
func (p rawPlayer) MarshalJSON() ([]byte, error) {
	if p.Nickname == nil {
		return json.Marshal(p.ID)
	}

	return json.Marshal(rawPlayerObject{ID: p.ID, Nickname: p.Nickname})
}
