package scpsl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func testClient(ip, info *httptest.Server) *Client {
	c := New()
	if ip != nil {
		c.IPURL = ip.URL
	}
	if info != nil {
		c.ServerInfoURL = info.URL
	}
	return c
}

func TestClientIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("203.0.113.7\n"))
	}))
	defer srv.Close()

	addr, err := testClient(srv, nil).IP(context.Background())
	if err != nil {
		t.Fatalf("ip request failed: %v", err)
	}
	if addr != netip.MustParseAddr("203.0.113.7") {
		t.Fatalf("unexpected address %v", addr)
	}
}

func TestClientIPv6(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("2001:db8::1"))
	}))
	defer srv.Close()

	addr, err := testClient(srv, nil).IP(context.Background())
	if err != nil {
		t.Fatalf("ip request failed: %v", err)
	}
	if !addr.Is6() {
		t.Fatalf("expected an ipv6 address, got %v", addr)
	}
}

func TestClientIPGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not an address</html>"))
	}))
	defer srv.Close()

	if _, err := testClient(srv, nil).IP(context.Background()); !errors.Is(err, ErrAddrParse) {
		t.Fatalf("expected ErrAddrParse, got %v", err)
	}
}

func TestClientServerInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("id") != "4242" || query.Get("key") != "k" || query.Get("players") != "true" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if query.Has("info") {
			t.Errorf("unset flag leaked into query %q", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Success": true, "Cooldown": 30, "Servers": [{"ID": 4242, "Port": 7777, "Players": "5/20"}]}`))
	}))
	defer srv.Close()

	resp, err := testClient(nil, srv).ServerInfo(context.Background(), ServerInfoParams{ID: 4242, Key: "k", Players: true})
	if err != nil {
		t.Fatalf("serverinfo request failed: %v", err)
	}

	success, ok := resp.(Success)
	if !ok {
		t.Fatalf("expected Success, got %T", resp)
	}
	if success.Cooldown != 30 || len(success.Servers) != 1 {
		t.Fatalf("unexpected response %+v", success)
	}
	if got := success.Servers[0].Players; got == nil || got.Current != 5 || got.Max != 20 {
		t.Fatalf("unexpected player count %+v", got)
	}
}

func TestClientServerInfoAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Success": false, "Error": "Undefined server ID"}`))
	}))
	defer srv.Close()

	resp, err := testClient(nil, srv).ServerInfo(context.Background(), ServerInfoParams{})
	if err != nil {
		t.Fatalf("serverinfo request failed: %v", err)
	}
	if failure, ok := resp.(Failure); !ok || failure.Message != "Undefined server ID" {
		t.Fatalf("expected Failure, got %+v", resp)
	}
}

func TestClientBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testClient(nil, srv).ServerInfo(context.Background(), ServerInfoParams{}); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing is listening anymore

	if _, err := testClient(srv, nil).IP(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClientCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testClient(srv, nil).IP(ctx); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport on cancellation, got %v", err)
	}
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Servers": "nope"`))
	}))
	defer srv.Close()

	if _, err := testClient(nil, srv).ServerInfo(context.Background(), ServerInfoParams{}); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}
