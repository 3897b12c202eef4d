// Command glimmer-sim simulates a pixel controller: it listens for
// protocol connections, decodes frames, and routes them to a websocket
// monitor and, when configured, a real strip on an SPI port.
package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glimmerlights/glimmer-go/internal/config"
	"github.com/glimmerlights/glimmer-go/internal/monitor"
	"github.com/glimmerlights/glimmer-go/internal/sim"
	"github.com/glimmerlights/glimmer-go/internal/strip"
)

func main() {
	var (
		addr        = flag.String("addr", ":7890", "protocol listen address")
		monitorAddr = flag.String("monitor", ":8080", "websocket monitor listen address")
		strips      = flag.Int("strips", 8, "number of strips")
		leds        = flag.Int("leds", 64, "LEDs per strip")
		spiDev      = flag.String("spi", "", "SPI port for a physical strip on channel 1 (empty = none)")
		spiSpeed    = flag.Int("spi-speed", strip.DefaultSpeedHz, "SPI clock in Hz")
		configPath  = flag.String("config", "", "optional config.yaml")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	eAddr, eMonitor := *addr, *monitorAddr
	eStrips, eLeds := *strips, *leds
	eSPIDev, eSPISpeed := *spiDev, *spiSpeed
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			if cfg.ListenAddr != "" {
				eAddr = cfg.ListenAddr
			}
			if cfg.MonitorAddr != "" {
				eMonitor = cfg.MonitorAddr
			}
			if cfg.Geo.Strips > 0 {
				eStrips = cfg.Geo.Strips
			}
			if cfg.Geo.LedsPerStrip > 0 {
				eLeds = cfg.Geo.LedsPerStrip
			}
			if cfg.SPI.Dev != "" {
				eSPIDev = cfg.SPI.Dev
			}
			if cfg.SPI.SpeedHz > 0 {
				eSPISpeed = cfg.SPI.SpeedHz
			}
		}
	}

	server := sim.NewServer()

	hub := monitor.NewHub(eStrips, eLeds)
	server.Register(sim.ChannelObserver, hub)

	if eSPIDev != "" {
		dev, err := strip.Open(eSPIDev, eLeds, eSPISpeed)
		if err != nil {
			log.Fatal().Err(err).Str("dev", eSPIDev).Msg("strip open failed")
		}
		defer dev.Close()
		server.Register(1, dev)
		log.Info().Str("dev", eSPIDev).Bool("spi", dev.SPI).Int("leds", eLeds).Msg("strip attached to channel 1")
	}

	ln, err := net.Listen("tcp", eAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", eAddr).Msg("listen failed")
	}
	go func() {
		if err := server.Serve(ln); err != nil {
			log.Error().Err(err).Msg("serve failed")
		}
	}()
	log.Info().Str("addr", eAddr).Int("strips", eStrips).Int("leds", eLeds).Msg("listening for frames")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler())
	go func() {
		if err := http.ListenAndServe(eMonitor, mux); err != nil {
			log.Error().Err(err).Str("addr", eMonitor).Msg("monitor server failed")
		}
	}()
	log.Info().Str("addr", eMonitor).Msg("monitor listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	ln.Close()
	log.Info().Uint64("frames", server.Frames()).Msg("shutting down")
}
