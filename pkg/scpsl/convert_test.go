package scpsl

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func u64Ptr(n uint64) *uint64 { return &n }
func datePtr(t time.Time) *time.Time { return &t }

func TestParsePlayerCount(t *testing.T) {
	count, err := ParsePlayerCount("5/20")
	if err != nil {
		t.Fatalf("parse 5/20 failed: %v", err)
	}
	if count.Current != 5 || count.Max != 20 {
		t.Fatalf("expected 5/20, got %d/%d", count.Current, count.Max)
	}

	for _, bad := range []string{"abc/20", "5", "", "5/", "/20", "-1/20", "5/-1"} {
		if _, err := ParsePlayerCount(bad); !errors.Is(err, ErrCountFormat) {
			t.Errorf("parse %q: expected ErrCountFormat, got %v", bad, err)
		}
	}
}

func TestPlayerCountString(t *testing.T) {
	if got := (PlayerCount{Current: 5, Max: 20}).String(); got != "5/20" {
		t.Fatalf("expected 5/20, got %q", got)
	}
	// Nonsensical counts pass through untouched.
	if got := (PlayerCount{Current: 30, Max: 20}).String(); got != "30/20" {
		t.Fatalf("expected 30/20, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2023-02-28")
	if err != nil {
		t.Fatalf("parse 2023-02-28 failed: %v", err)
	}
	if !date.Equal(Date(2023, time.February, 28)) {
		t.Fatalf("unexpected date %v", date)
	}

	for _, bad := range []string{"2023-02-30", "2023/02/28", "2023-2-28", "2023-02-28x", "yesterday", ""} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrDateFormat) {
			t.Errorf("parse %q: expected ErrDateFormat, got %v", bad, err)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(Date(2023, time.March, 7)); got != "2023-03-07" {
		t.Fatalf("expected zero-padded 2023-03-07, got %q", got)
	}
}

func TestDecodeInfo(t *testing.T) {
	info, err := decodeInfo("SGVsbG8=")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if info != "Hello" {
		t.Fatalf("expected Hello, got %q", info)
	}

	if _, err := decodeInfo("not-base64!"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	// Valid base64 of invalid UTF-8.
	if _, err := decodeInfo("/w=="); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for non-utf8 bytes, got %v", err)
	}
}

func TestDecodeResponseFailure(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"Success": false, "Error": "rate limited"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	failure, ok := resp.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %T", resp)
	}
	if failure.Message != "rate limited" {
		t.Fatalf("unexpected message %q", failure.Message)
	}
}

func TestDecodeResponseCooldownQuirk(t *testing.T) {
	// Historic payloads repeat the "Success" key, the numeric occurrence
	// being the cooldown.
	raw := `{"Success": true, "Servers": [{"ID": 1234, "Port": 7777}], "Success": 30}`

	resp, err := DecodeResponse([]byte(raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	success, ok := resp.(Success)
	if !ok {
		t.Fatalf("expected Success, got %T", resp)
	}
	if success.Cooldown != 30 {
		t.Fatalf("expected cooldown 30, got %d", success.Cooldown)
	}
	if len(success.Servers) != 1 || success.Servers[0].ID != 1234 || success.Servers[0].Port != 7777 {
		t.Fatalf("unexpected servers %+v", success.Servers)
	}
}

func TestDecodeResponseCooldownKey(t *testing.T) {
	raw := `{"Success": true, "Cooldown": 60, "Servers": []}`

	resp, err := DecodeResponse([]byte(raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	success, ok := resp.(Success)
	if !ok {
		t.Fatalf("expected Success, got %T", resp)
	}
	if success.Cooldown != 60 {
		t.Fatalf("expected cooldown 60, got %d", success.Cooldown)
	}
	if success.Servers == nil || len(success.Servers) != 0 {
		t.Fatalf("expected empty server list, got %+v", success.Servers)
	}
}

func TestDecodeResponseMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{]`,
		"not an object":    `[1, 2]`,
		"missing success":  `{"Servers": []}`,
		"missing cooldown": `{"Success": true, "Servers": []}`,
		"missing servers":  `{"Success": true, "Cooldown": 30}`,
		"server no port":   `{"Success": true, "Cooldown": 30, "Servers": [{"ID": 5}]}`,
		"server no id":     `{"Success": true, "Cooldown": 30, "Servers": [{"Port": 7777}]}`,
		"string id":        `{"Success": true, "Cooldown": 30, "Servers": [{"ID": "x", "Port": 7777}]}`,
		"null servers":     `{"Success": true, "Cooldown": 30, "Servers": null}`,
	}

	for name, raw := range cases {
		if _, err := DecodeResponse([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%s: expected ErrMalformedPayload, got %v", name, err)
		}
	}
}

func TestDecodeResponseBadRecordAbortsAll(t *testing.T) {
	// The second record is fine, but the first one's count is broken; the
	// whole response must be rejected.
	raw := `{"Success": true, "Cooldown": 30, "Servers": [
		{"ID": 1, "Port": 7777, "Players": "abc/20"},
		{"ID": 2, "Port": 7778, "Players": "5/20"}
	]}`

	if _, err := DecodeResponse([]byte(raw)); !errors.Is(err, ErrCountFormat) {
		t.Fatalf("expected ErrCountFormat, got %v", err)
	}
}

func TestDecodeResponseDateError(t *testing.T) {
	raw := `{"Success": true, "Cooldown": 30, "Servers": [{"ID": 1, "Port": 7777, "LastOnline": "2023-02-30"}]}`

	if _, err := DecodeResponse([]byte(raw)); !errors.Is(err, ErrDateFormat) {
		t.Fatalf("expected ErrDateFormat, got %v", err)
	}
}

func TestDecodeResponseOptionalKeysAbsent(t *testing.T) {
	raw := `{"Success": true, "Cooldown": 30, "Servers": [{"ID": 1, "Port": 7777}]}`

	resp, err := DecodeResponse([]byte(raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	srv := resp.(Success).Servers[0]
	if srv.LastOnline != nil || srv.Players != nil || srv.PlayerList != nil ||
		srv.Info != nil || srv.FriendlyFire != nil || srv.Whitelist != nil ||
		srv.Modded != nil || srv.Mods != nil || srv.Suppress != nil || srv.AutoSuppress != nil {
		t.Fatalf("expected all optional fields absent, got %+v", srv)
	}
}

func TestDecodeResponsePlayerObjectWithoutID(t *testing.T) {
	// A nickname-only object is not a valid player in either wire shape.
	raw := `{"Success": true, "Cooldown": 30, "Servers": [
		{"ID": 1, "Port": 7777, "PlayersList": [{"Nickname": "ghost"}]}
	]}`

	if _, err := DecodeResponse([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestPlayerWireVariants(t *testing.T) {
	raw := `{"Success": true, "Cooldown": 30, "Servers": [
		{"ID": 1, "Port": 7777, "PlayersList": [
			"76561198000000000@steam",
			{"ID": "22@northwood", "Nickname": "Hubert"},
			{"ID": "23@northwood"}
		]}
	]}`

	resp, err := DecodeResponse([]byte(raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	players := resp.(Success).Servers[0].PlayerList
	want := []Player{
		{ID: "76561198000000000@steam"},
		{ID: "22@northwood", Nickname: strPtr("Hubert")},
		{ID: "23@northwood"},
	}
	if !reflect.DeepEqual(players, want) {
		t.Fatalf("expected %+v, got %+v", want, players)
	}
}

func TestPlayerEncodeVariants(t *testing.T) {
	// No nickname must re-derive the bare string form, a nickname the
	// object form.
	resp := Success{Cooldown: 1, Servers: []Server{{
		ID:   1,
		Port: 7777,
		PlayerList: []Player{
			{ID: "1@steam"},
			{ID: "2@steam", Nickname: strPtr("Nick")},
		},
	}}}

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	encoded := string(data)
	if want := `"1@steam"`; !strings.Contains(encoded, want) {
		t.Errorf("expected bare string variant %s in %s", want, encoded)
	}
	if want := `{"ID":"2@steam","Nickname":"Nick"}`; !strings.Contains(encoded, want) {
		t.Errorf("expected object variant %s in %s", want, encoded)
	}
}

func TestEncodeOmitsAbsentKeys(t *testing.T) {
	data, err := EncodeResponse(Success{Cooldown: 5, Servers: []Server{{ID: 9, Port: 80}}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	encoded := string(data)
	for _, key := range []string{"LastOnline", "Players", "PlayersList", "Info", "FF", "WL", "Modded", "Mods", "Suppress", "AutoSuppress", "Error", "null"} {
		if strings.Contains(encoded, key) {
			t.Errorf("absent field leaked key %q: %s", key, encoded)
		}
	}
}

func TestServerRoundTrip(t *testing.T) {
	lastOnline := Date(2023, time.November, 5)
	original := Success{
		Cooldown: 42,
		Servers: []Server{{
			ID:           31337,
			Port:         7777,
			LastOnline:   datePtr(lastOnline),
			Players:      &PlayerCount{Current: 17, Max: 25},
			PlayerList:   []Player{{ID: "1@steam"}, {ID: "2@discord", Nickname: strPtr("Dana")}},
			Info:         strPtr("Hello, world"),
			FriendlyFire: boolPtr(true),
			Whitelist:    boolPtr(false),
			Modded:       boolPtr(true),
			Mods:         u64Ptr(3),
			Suppress:     boolPtr(false),
			AutoSuppress: boolPtr(true),
		}},
	}

	data, err := EncodeResponse(original)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !reflect.DeepEqual(decoded, Response(original)) {
		t.Fatalf("round trip mismatch:\n want %+v\n got  %+v", original, decoded)
	}
}

func TestFailureRoundTrip(t *testing.T) {
	data, err := EncodeResponse(Failure{Message: "ip not verified"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if strings.Contains(string(data), "Cooldown") || strings.Contains(string(data), "Servers") {
		t.Fatalf("failure encoding leaked success fields: %s", data)
	}

	decoded, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if failure, ok := decoded.(Failure); !ok || failure.Message != "ip not verified" {
		t.Fatalf("unexpected decode result %+v", decoded)
	}
}

func TestEmptyPlayerListRoundTrip(t *testing.T) {
	// A requested but empty list stays distinct from a list that was not
	// requested at all.
	withList := Server{ID: 1, Port: 2, PlayerList: []Player{}}
	withoutList := Server{ID: 1, Port: 2}

	dataWith, err := EncodeResponse(Success{Cooldown: 1, Servers: []Server{withList}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	dataWithout, err := EncodeResponse(Success{Cooldown: 1, Servers: []Server{withoutList}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if !strings.Contains(string(dataWith), `"PlayersList":[]`) {
		t.Fatalf("expected empty PlayersList key, got %s", dataWith)
	}
	if strings.Contains(string(dataWithout), "PlayersList") {
		t.Fatalf("unexpected PlayersList key in %s", dataWithout)
	}

	decoded, err := DecodeResponse(dataWith)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := decoded.(Success).Servers[0].PlayerList; got == nil || len(got) != 0 {
		t.Fatalf("expected present empty list, got %#v", got)
	}
}
