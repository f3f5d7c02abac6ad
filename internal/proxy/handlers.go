package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpsl/internal/storage"
	"github.com/woozymasta/scpsl/pkg/scpsl"
)

// handleIP answers with the requester's address in the upstream's plain-text
// shape.
func (p *Proxy) handleIP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, GetRealIP(r, p.trustProxy))
}

// handleServerInfo accepts the upstream's exact query parameters and answers
// in its wire format. Misses go upstream (or to the seed in mock mode); hits
// are served from the cooldown-bounded cache.
func (p *Proxy) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if len(p.allowedKeys) > 0 {
		hash := xxhash.Sum64String(query.Get("key"))
		if _, allowed := p.allowedKeys[hash]; !allowed {
			p.writeResponse(w, scpsl.Failure{Message: "Server ID or API key is invalid"})
			return
		}
	}

	params := paramsFromQuery(query)
	cacheKey := canonicalKey(params)

	if cached, found := p.cache.Get(cacheKey); found {
		writeWire(w, cached.([]byte))
		return
	}

	var resp scpsl.Response
	if p.upstreamKey == "" {
		resp = p.seed.Response(params)
	} else {
		upstream := params
		upstream.Key = p.upstreamKey
		if upstream.ID == 0 {
			upstream.ID = p.upstreamID
		}

		var err error
		resp, err = p.client.ServerInfo(r.Context(), upstream)
		if err != nil {
			log.Error().Err(err).Str("query", cacheKey).Msg("Upstream request failed")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
			return
		}
	}

	if success, ok := resp.(scpsl.Success); ok {
		p.persist(success)
	}

	data, err := scpsl.EncodeResponse(resp)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Only successful listings are cached; failures must stay visible.
	if success, ok := resp.(scpsl.Success); ok {
		ttl := time.Duration(success.Cooldown) * time.Second
		if ttl < p.minTTL {
			ttl = p.minTTL
		}
		p.cache.Set(cacheKey, data, ttl)
	}

	writeWire(w, data)
}

// handleStats returns a JSON list of all stored server snapshots.
// This endpoint is protected by AuthMiddleware.
func (p *Proxy) handleStats(w http.ResponseWriter, _ *http.Request) {
	if p.store == nil {
		http.Error(w, "Storage disabled", http.StatusNotFound)
		return
	}

	snapshots, err := p.store.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch snapshots")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if snapshots == nil {
		snapshots = []storage.Snapshot{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshots)
}

func (p *Proxy) persist(success scpsl.Success) {
	if p.store == nil {
		return
	}

	now := time.Now().UTC()
	for _, srv := range success.Servers {
		if err := p.store.Upsert(storage.FromServer(srv, now)); err != nil {
			log.Warn().Err(err).Uint64("server_id", srv.ID).Msg("Failed to store snapshot")
		}
	}
}

// paramsFromQuery reverses the query builder: it reads the upstream's
// parameter names back into a parameter set.
func paramsFromQuery(query map[string][]string) scpsl.ServerInfoParams {
	get := func(name string) string {
		if v, ok := query[name]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	flag := func(name string) bool {
		return get(name) == "true"
	}

	id, _ := strconv.ParseUint(get("id"), 10, 64)

	return scpsl.ServerInfoParams{
		ID:         id,
		Key:        get("key"),
		LastOnline: flag("lo"),
		Players:    flag("players"),
		List:       flag("list"),
		Info:       flag("info"),
		Pastebin:   flag("pastebin"),
		Version:    flag("version"),
		Flags:      flag("flags"),
		Nicknames:  flag("nicknames"),
		Online:     flag("online"),
	}
}

// canonicalKey renders the parameter set without the caller's key, so all
// authorized callers share one cache entry per parameter combination.
func canonicalKey(params scpsl.ServerInfoParams) string {
	params.Key = ""
	u, err := params.URL("http://cache.local")
	if err != nil {
		return ""
	}

	return u.RawQuery
}

func (p *Proxy) writeResponse(w http.ResponseWriter, resp scpsl.Response) {
	data, err := scpsl.EncodeResponse(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeWire(w, data)
}

func writeWire(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
