package scpsl

import (
	"errors"
	"testing"
)

func TestParamsOnlySetFlagsAppear(t *testing.T) {
	u, err := ServerInfoParams{Players: true}.URL("https://api.scpslgame.com/serverinfo.php")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	query := u.Query()
	if got := query.Get("players"); got != "true" {
		t.Fatalf("expected players=true, got %q", got)
	}
	for _, absent := range []string{"id", "key", "info", "lo", "list", "pastebin", "version", "flags", "nicknames", "online"} {
		if query.Has(absent) {
			t.Errorf("unexpected parameter %q in %s", absent, u.RawQuery)
		}
	}
}

func TestParamsAllSet(t *testing.T) {
	params := ServerInfoParams{
		ID:         93940,
		Key:        "secret",
		LastOnline: true,
		Players:    true,
		List:       true,
		Info:       true,
		Pastebin:   true,
		Version:    true,
		Flags:      true,
		Nicknames:  true,
		Online:     true,
	}

	u, err := params.URL("https://api.scpslgame.com/serverinfo.php")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	query := u.Query()
	if got := query.Get("id"); got != "93940" {
		t.Errorf("expected id=93940, got %q", got)
	}
	if got := query.Get("key"); got != "secret" {
		t.Errorf("expected key=secret, got %q", got)
	}
	for _, flag := range []string{"lo", "players", "list", "info", "pastebin", "version", "flags", "nicknames", "online"} {
		if got := query.Get(flag); got != "true" {
			t.Errorf("expected %s=true, got %q", flag, got)
		}
	}
}

func TestParamsEscaping(t *testing.T) {
	u, err := ServerInfoParams{Key: "a b&c=d"}.URL("https://api.scpslgame.com/serverinfo.php")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if u.RawQuery != "key=a+b%26c%3Dd" {
		t.Fatalf("reserved characters not escaped: %q", u.RawQuery)
	}
	if got := u.Query().Get("key"); got != "a b&c=d" {
		t.Fatalf("escaping is not reversible: %q", got)
	}
}

func TestParamsKeepsBaseQuery(t *testing.T) {
	u, err := ServerInfoParams{Online: true}.URL("https://example.com/info?format=json")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	query := u.Query()
	if query.Get("format") != "json" || query.Get("online") != "true" {
		t.Fatalf("unexpected query %q", u.RawQuery)
	}
}

func TestParamsBadBaseURL(t *testing.T) {
	for _, base := range []string{"://broken", "serverinfo.php", "/relative/path", ""} {
		if _, err := (ServerInfoParams{}).URL(base); !errors.Is(err, ErrURLBuild) {
			t.Errorf("base %q: expected ErrURLBuild, got %v", base, err)
		}
	}
}
