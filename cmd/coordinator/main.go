package main

import (
	"context"
	goflag "flag"

	flag "github.com/spf13/pflag"

	"github.com/openpodium/podium/pkg/config"
	"github.com/openpodium/podium/pkg/coordinator"
	"github.com/openpodium/podium/pkg/logger"
	"github.com/openpodium/podium/pkg/os"
)

var Version = "?"

func main() {
	conf := config.NewCoordinatorConfig()
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	conf.ParseFlags()

	log := logger.NewConsole(conf.Coordinator.Debug, "c", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}
	c, err := coordinator.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("coordinator init fail")
	}
	c.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		if err := c.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()
	<-os.ExpectTermination()
	cancel()
}
