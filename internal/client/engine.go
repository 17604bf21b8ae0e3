package client

import (
	"fmt"

	"github.com/joekir/ssdeepviz/internal/config"
	"github.com/joekir/ssdeepviz/internal/session"
)

// New returns the engine selected by cfg.Transport.
func New(cfg *config.Config) (session.Engine, error) {
	switch cfg.Transport {
	case config.TransportHTTP:
		return NewHTTPEngine(cfg.ServerURL, cfg.Timeout), nil
	case config.TransportWS:
		return NewWSEngine(cfg.ServerURL, cfg.Timeout)
	case config.TransportLocal:
		return LocalEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
