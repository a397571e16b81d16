package spacex

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/pendergraft/launchcache/internal/config"
)

// NewFromConfig builds a client from the remote settings, installing
// certificate pinning when enabled
func NewFromConfig(cfg config.RemoteConfig, observer Observer, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.PinningEnabled {
		transport.TLSClientConfig = PinnedTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}, cfg.PinnedHashes, cfg.ValidateChain)
		logger.Info("certificate pinning enabled", "pins", len(cfg.PinnedHashes), "validate_chain", cfg.ValidateChain)
	} else {
		logger.Warn("certificate pinning disabled")
	}

	opts := []Option{
		WithHTTPClient(&http.Client{
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: transport,
		}),
		WithVersions(Versions{
			Launches: cfg.LaunchesVersion,
			Rockets:  cfg.RocketsVersion,
			Company:  cfg.CompanyVersion,
		}),
		WithRateLimit(float64(cfg.RequestsPerSec), cfg.Burst),
		WithRetry(cfg.RetryAttempts+1, 500*time.Millisecond),
		WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, WithObserver(observer))
	}

	return New(cfg.BaseURL, opts...)
}
