package scpsl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// Endpoints of the public central API.
const (
	DefaultIPURL         = "https://api.scpslgame.com/ip.php"
	DefaultServerInfoURL = "https://api.scpslgame.com/serverinfo.php"
)

const defaultTimeout = 10 * time.Second

// Client issues requests against the statistics API. Construct it with New,
// adjust fields before the first call; afterwards it is safe for concurrent
// use. The client itself never retries and never caches.
type Client struct {
	// HTTP performs the requests. Replace it to control timeout, TLS,
	// proxy or pooling policy; the client applies none of its own.
	HTTP *http.Client

	// IPURL is the endpoint answering with the caller's IP as plain text.
	IPURL string

	// ServerInfoURL is the endpoint answering with the serverinfo JSON.
	ServerInfoURL string
}

// New returns a Client for the public API with a default request timeout.
func New() *Client {
	return &Client{
		HTTP:          &http.Client{Timeout: defaultTimeout},
		IPURL:         DefaultIPURL,
		ServerInfoURL: DefaultServerInfoURL,
	}
}

// IP requests the caller's public address as seen by the API. The response
// body is a bare IPv4 or IPv6 literal, not JSON.
func (c *Client) IP(ctx context.Context) (netip.Addr, error) {
	body, err := c.get(ctx, c.IPURL)
	if err != nil {
		return netip.Addr{}, err
	}

	text := strings.TrimSpace(string(body))
	addr, err := netip.ParseAddr(text)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrAddrParse, text)
	}

	return addr, nil
}

// ServerInfo requests the server listing selected by params. A refusal by
// the API itself comes back as Failure, not as an error; the error covers
// transport and payload problems only.
func (c *Client) ServerInfo(ctx context.Context, params ServerInfoParams) (Response, error) {
	u, err := params.URL(c.ServerInfoURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	return DecodeResponse(body)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrURLBuild, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// Covers network failure and context cancellation alike.
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	return body, nil
}
