// Package coordinator runs the session room coordinator of the debate
// platform: it accepts websocket connections from browsers, seats them
// into two-party rooms, and relays WebRTC signaling between the occupants.
package coordinator

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openpodium/podium/pkg/config"
	"github.com/openpodium/podium/pkg/logger"
	"github.com/openpodium/podium/pkg/monitoring"
	"github.com/openpodium/podium/pkg/network/httpx"
	"github.com/openpodium/podium/pkg/service"
)

type Coordinator struct {
	conf     config.CoordinatorConfig
	log      *logger.Logger
	services service.Group
}

func New(conf config.CoordinatorConfig, log *logger.Logger) (*Coordinator, error) {
	c := &Coordinator{conf: conf, log: log}
	hub := NewHub(conf, log, prometheus.DefaultRegisterer)
	srv, err := NewHTTPServer(conf, log, func(mux *httpx.Mux) {
		mux.HandleFunc("/ws", hub.handleUserConnection)
	})
	if err != nil {
		return nil, err
	}
	c.services.Add(srv)
	if conf.Coordinator.Monitoring.IsEnabled() {
		c.services.Add(monitoring.New(conf.Coordinator.Monitoring, "cord", log))
	}
	return c, nil
}

func (c *Coordinator) Start() { c.services.Start() }

func (c *Coordinator) Shutdown(ctx context.Context) error { return c.services.Shutdown(ctx) }

func NewHTTPServer(conf config.CoordinatorConfig, log *logger.Logger, fnMux func(*httpx.Mux)) (*httpx.Server, error) {
	return httpx.NewServer(
		conf.Coordinator.Server.GetAddr(),
		func(s *httpx.Server) httpx.Handler {
			h := s.Mux()
			h.HandleFunc("/health", func(w httpx.ResponseWriter, _ *httpx.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("OK"))
			})
			fnMux(h)
			return h
		},
		httpx.WithServerConfig(conf.Coordinator.Server),
		httpx.WithLogger(log),
	)
}
