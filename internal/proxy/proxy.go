// Package proxy implements a local HTTP stand-in for the central statistics
// API. It answers /ip and /serverinfo in the upstream wire format, either by
// forwarding through the client or, in mock mode, from seed data, and keeps
// a snapshot history of every server state it decodes.
package proxy

import (
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
	"github.com/woozymasta/scpsl/internal/config"
	"github.com/woozymasta/scpsl/internal/storage"
	"github.com/woozymasta/scpsl/pkg/scpsl"
)

// Proxy holds the dependencies, configuration, and runtime state required to
// answer requests in the upstream wire format.
type Proxy struct {
	// client performs upstream requests. Unused in mock mode.
	client *scpsl.Client

	// store keeps snapshots of decoded server states. May be nil, in
	// which case nothing is persisted.
	store *storage.Repository

	// cache maps canonical request parameters to encoded responses; the
	// per-entry TTL follows the upstream-reported cooldown.
	cache *cache.Cache

	// seed is the server set served in mock mode.
	seed *Seed

	// allowedKeys is the xxhash set of API keys local callers may use.
	// Empty means any key is accepted.
	allowedKeys map[uint64]struct{}

	// shutdown broadcasts a stop signal to background cleanup.
	shutdown chan struct{}

	// authToken protects the /stats endpoint.
	authToken string

	// upstreamKey and upstreamID replace the caller's credentials on
	// forwarded requests. An empty key switches the proxy to mock mode.
	upstreamKey string
	upstreamID  uint64

	// minTTL is the lower bound for cache entry lifetime, guarding
	// against a zero cooldown from upstream.
	minTTL time.Duration

	rateCount  int
	rateWindow time.Duration
	trustProxy bool
}

// New creates a Proxy from the command configuration. client may be nil when
// cfg.UpstreamKey is empty (mock mode), store and seed may be nil.
func New(cfg config.ProxyCmd, client *scpsl.Client, store *storage.Repository, seed *Seed) *Proxy {
	keys := make(map[uint64]struct{}, len(cfg.AllowedKeys))
	for _, key := range cfg.AllowedKeys {
		keys[xxhash.Sum64String(key)] = struct{}{}
	}

	return &Proxy{
		client:      client,
		store:       store,
		cache:       cache.New(time.Minute, 5*time.Minute),
		seed:        seed,
		allowedKeys: keys,
		authToken:   cfg.AuthToken,
		upstreamKey: cfg.UpstreamKey,
		upstreamID:  cfg.UpstreamID,
		minTTL:      cfg.MinTTL,
		rateCount:   cfg.RateCount,
		rateWindow:  cfg.RateWindow,
		trustProxy:  cfg.TrustProxy,
		shutdown:    make(chan struct{}),
	}
}

// Handler configures the HTTP routes and returns the main handler. Both the
// short paths and the upstream's .php spellings are served so existing
// clients can be pointed at the proxy unchanged.
func (p *Proxy) Handler() http.Handler {
	mux := http.NewServeMux()

	ip := http.HandlerFunc(p.handleIP)
	info := p.RateLimitMiddleware(http.HandlerFunc(p.handleServerInfo))

	mux.Handle("GET /ip", ip)
	mux.Handle("GET /ip.php", ip)
	mux.Handle("GET /serverinfo", info)
	mux.Handle("GET /serverinfo.php", info)
	mux.Handle("GET /stats", AuthMiddleware(p.authToken, http.HandlerFunc(p.handleStats)))

	return p.LoggingMiddleware(mux)
}

// Stop terminates the background cleanup of the rate limiter.
func (p *Proxy) Stop() {
	close(p.shutdown)
}
