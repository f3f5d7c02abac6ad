// main is the entry point of the scpsl tool. It parses the configuration,
// sets up logging and dispatches to one of the commands: ip, info or proxy.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpsl/internal/config"
	"github.com/woozymasta/scpsl/internal/geoip"
	"github.com/woozymasta/scpsl/internal/logger"
	"github.com/woozymasta/scpsl/internal/proxy"
	"github.com/woozymasta/scpsl/internal/storage"
	"github.com/woozymasta/scpsl/pkg/scpsl"
)

func main() {
	cfg, command := config.Parse()
	logger.Setup(cfg.Logger)

	client := scpsl.New()
	client.HTTP.Timeout = cfg.API.Timeout
	client.IPURL = cfg.API.IPURL
	client.ServerInfoURL = cfg.API.InfoURL

	switch command {
	case "ip":
		runIP(cfg, client)
	case "info":
		runInfo(cfg, client)
	case "proxy":
		runProxy(cfg, client)
	}
}

// runIP prints the public address the API sees, optionally annotated with
// the GeoIP country.
func runIP(cfg *config.Config, client *scpsl.Client) {
	addr, err := client.IP(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("IP request failed")
	}

	if !cfg.IP.Country {
		fmt.Println(addr)
		return
	}

	fmt.Printf("%s %s\n", addr, lookupCountry(cfg.IP.GeoIP, addr))
}

func lookupCountry(cfg config.GeoIP, addr netip.Addr) string {
	if err := geoip.EnsureDB(cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
		return ""
	}

	provider, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database")
		return ""
	}
	defer func() { _ = provider.Close() }()

	return provider.Country(addr)
}

// runInfo queries serverinfo and prints the result. An API-reported failure
// exits non-zero with its message; transport and payload problems are fatal
// log events.
func runInfo(cfg *config.Config, client *scpsl.Client) {
	resp, err := client.ServerInfo(context.Background(), cfg.Info.Params())
	if err != nil {
		switch {
		case errors.Is(err, scpsl.ErrTransport):
			log.Fatal().Err(err).Msg("Request failed")
		case errors.Is(err, scpsl.ErrURLBuild):
			log.Fatal().Err(err).Msg("Invalid endpoint URL")
		default:
			log.Fatal().Err(err).Msg("Response could not be decoded")
		}
	}

	if cfg.Info.JSON {
		data, err := scpsl.EncodeResponse(resp)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode response")
		}
		fmt.Println(string(data))
		return
	}

	switch v := resp.(type) {
	case scpsl.Failure:
		fmt.Fprintf(os.Stderr, "API error: %s\n", v.Message)
		os.Exit(1)
	case scpsl.Success:
		printServers(v)
	}
}

func printServers(success scpsl.Success) {
	fmt.Printf("cooldown: %ds, servers: %d\n", success.Cooldown, len(success.Servers))

	for _, srv := range success.Servers {
		fmt.Printf("server %d port %d", srv.ID, srv.Port)
		if srv.Players != nil {
			fmt.Printf(" players %s", srv.Players)
		}
		if srv.LastOnline != nil {
			fmt.Printf(" last online %s", scpsl.FormatDate(*srv.LastOnline))
		}
		if srv.Info != nil {
			fmt.Printf(" info %q", *srv.Info)
		}
		fmt.Println()

		for _, player := range srv.PlayerList {
			if player.Nickname != nil {
				fmt.Printf("  %s (%s)\n", player.ID, *player.Nickname)
			} else {
				fmt.Printf("  %s\n", player.ID)
			}
		}
	}
}

// runProxy starts the local stats proxy and blocks until a shutdown signal.
func runProxy(cfg *config.Config, client *scpsl.Client) {
	log.Info().Msg("Starting scpsl proxy...")

	var store *storage.Repository
	if cfg.Proxy.DBPath != "" {
		var err error
		store, err = storage.New(cfg.Proxy.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing database")
			}
		}()
	}

	var seed *proxy.Seed
	if cfg.Proxy.Seed != "" {
		var err error
		seed, err = proxy.LoadSeed(cfg.Proxy.Seed)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Proxy.Seed).Msg("Failed to load seed file")
		}
		log.Info().Int("servers", len(seed.Servers)).Msg("Seed loaded")
	}

	if cfg.Proxy.UpstreamKey == "" {
		log.Warn().Msg("No upstream key configured, serving mock responses")
	}

	handler := proxy.New(cfg.Proxy, client, store, seed)
	defer handler.Stop()

	httpServer := &http.Server{
		Addr:         cfg.Proxy.Address,
		Handler:      handler.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Proxy.Address).Msg("Proxy listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Proxy failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down proxy...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Proxy forced to shutdown")
	}

	log.Info().Msg("Proxy exited")
}
