// Package scpsl implements a client for the SCP: Secret Laboratory central
// statistics API (https://api.scpslgame.com). It covers the "ip" and
// "serverinfo" requests, decodes the wire JSON into typed values and encodes
// them back, which is what a local proxy or mock of the API needs.
package scpsl

import "time"

// Response is the outcome of a serverinfo request as reported by the API
// itself: either a Success listing or a Failure message. Exactly one of the
// two concrete types implements each variant.
type Response interface {
	isResponse()
}

// Success holds the server records returned for the request and the cooldown
// in seconds the API asks the caller to wait before the next request.
type Success struct {
	Servers  []Server
	Cooldown uint64
}

func (Success) isResponse() {}

// Failure holds the error message reported by the API (unknown key,
// unverified IP, rate limit and so on).
type Failure struct {
	Message string
}

func (Failure) isResponse() {}

// Server is one server's reported state. Required fields are always set;
// every other field is nil unless the matching request flag was sent, and
// converting to the wire form and back keeps absent and present distinct.
type Server struct {
	// LastOnline is the day the server was last seen, UTC midnight.
	LastOnline *time.Time

	// Players is the decoded "current/max" pair.
	Players *PlayerCount

	// Info is the server description, already base64-decoded.
	Info *string

	FriendlyFire *bool
	Whitelist    *bool
	Modded       *bool
	Suppress     *bool
	AutoSuppress *bool

	// Mods is the number of installed server mods.
	Mods *uint64

	// PlayerList holds the connected players. A nil slice means the list
	// was not requested; an empty non-nil slice means an empty server.
	PlayerList []Player

	ID   uint64
	Port uint16
}

// PlayerCount is the current and maximum player count of a server. The API
// does not guarantee Current <= Max and neither does this type.
type PlayerCount struct {
	Current uint32
	Max     uint32
}

// Player is one entry of a server's player list. Nickname is nil when the
// server reported the bare user id form.
type Player struct {
	Nickname *string
	ID       string
}

// Date returns a UTC day-precision timestamp suitable for Server.LastOnline.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
