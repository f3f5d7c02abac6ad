// Package geoip downloads and reads MaxMind GeoLite2 country databases for
// annotating the address the "ip" command prints.
package geoip

import (
	"io"
	"net"
	"net/http"
	"net/netip"
	"os"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// Provider wraps the GeoIP2 reader for country lookups.
type Provider struct {
	db *geoip2.Reader
}

// Open initializes the reader from an MMDB file.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Close closes the underlying database reader.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Country looks up the ISO country code (e.g. "US", "DE") of an address.
// It returns an empty string when the country cannot be determined.
func (p *Provider) Country(addr netip.Addr) string {
	record, err := p.db.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}

// EnsureDB downloads a fresh copy of the database when the file at path is
// missing or older than maxAge.
func EnsureDB(path, url string, maxAge time.Duration) error {
	info, err := os.Stat(path)

	if err == nil {
		if time.Since(info.ModTime()) < maxAge {
			log.Debug().Str("path", path).Msg("GeoIP database is up to date")
			return nil
		}
		log.Info().Str("path", path).Msg("GeoIP database is outdated, updating...")
	} else if os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	} else {
		return err
	}

	return downloadFile(path, url)
}

// downloadFile fetches the database into a temporary file and renames it
// into place so readers never see a partial write.
func downloadFile(filepath string, url string) error {
	tmpPath := filepath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Failed to download GeoIP DB")
		return os.ErrInvalid
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, filepath)
}
