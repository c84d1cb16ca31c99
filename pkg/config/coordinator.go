package config

import (
	flag "github.com/spf13/pflag"
)

type CoordinatorConfig struct {
	Coordinator Coordinator
}

type Coordinator struct {
	Debug      bool
	Monitoring Monitoring
	// Origin restricts allowed websocket origins, * allows any.
	Origin string
	Rooms  Rooms
	Server Server
}

// Rooms holds room lifecycle policy knobs.
type Rooms struct {
	// ResetReadyOnReconnect drops the readiness flag of a
	// reconnecting occupant instead of preserving it.
	ResetReadyOnReconnect bool `fig:"reset_ready_on_reconnect"`
	// StrictTurnPass allows only the occupant holding the turn to pass it.
	StrictTurnPass bool `fig:"strict_turn_pass"`
}

type Monitoring struct {
	Port             int
	URLPrefix        string `fig:"url_prefix"`
	MetricEnabled    bool   `fig:"metric_enabled"`
	ProfilingEnabled bool   `fig:"profiling_enabled"`
}

func (m Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

type Server struct {
	Address string
	Https   bool
	Tls     struct {
		Address   string
		Domain    string
		HttpsKey  string `fig:"https_key"`
		HttpsCert string `fig:"https_cert"`
	}
}

func (s Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}

// allows custom config path
var coordinatorConfigPath string

func NewCoordinatorConfig() (conf CoordinatorConfig) {
	if err := LoadConfig(&conf, coordinatorConfigPath); err != nil {
		panic(err)
	}
	return
}

func (c *CoordinatorConfig) ParseFlags() {
	flag.StringVarP(&coordinatorConfigPath, "conf", "", coordinatorConfigPath, "set custom configuration file path")
	flag.StringVarP(&c.Coordinator.Server.Address, "address", "a", c.Coordinator.Server.Address, "HTTP server address (host:port)")
	flag.BoolVarP(&c.Coordinator.Debug, "debug", "d", c.Coordinator.Debug, "enable debug logging")
	flag.BoolVarP(&c.Coordinator.Monitoring.MetricEnabled, "monitoring.metric", "m", c.Coordinator.Monitoring.MetricEnabled, "enable prometheus metrics")
	flag.BoolVarP(&c.Coordinator.Monitoring.ProfilingEnabled, "monitoring.pprof", "p", c.Coordinator.Monitoring.ProfilingEnabled, "enable golang pprof")
	flag.IntVarP(&c.Coordinator.Monitoring.Port, "monitoring.port", "", c.Coordinator.Monitoring.Port, "monitoring server port")
	flag.Parse()
}
