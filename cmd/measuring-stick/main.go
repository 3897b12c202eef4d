// Command measuring-stick pushes test frames to a pixel server. The
// default pattern lights every LED gray with every multiple of 10 green,
// which makes strip lengths easy to measure by eye.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	glimmer "github.com/glimmerlights/glimmer-go"
	"github.com/glimmerlights/glimmer-go/internal/config"
	"github.com/glimmerlights/glimmer-go/internal/pattern"
)

func main() {
	var (
		server     = flag.String("server", "localhost:7890", "pixel server host:port")
		channel    = flag.Int("channel", 0, "channel to address (0 = all channels)")
		strips     = flag.Int("strips", 6, "number of strips")
		leds       = flag.Int("leds", 120, "LEDs per strip")
		fps        = flag.Int("fps", 10, "frame rate for stepped patterns")
		patName    = flag.String("pattern", "measuring-stick", "pattern: measuring-stick | gradient | index_sweep | rgb_channels")
		fromHex    = flag.String("from", "#0A3306", "gradient start color")
		toHex      = flag.String("to", "#36FF1F", "gradient end color")
		bestEffort = flag.Bool("best-effort", false, "swallow send failures instead of exiting")
		configPath = flag.String("config", "", "optional config.yaml")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	addr, ch := *server, *channel
	dialTimeout, writeTimeout := time.Duration(0), time.Duration(0)
	eStrips, eLeds, eFPS := *strips, *leds, *fps
	eBestEffort := *bestEffort
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			if cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			if cfg.Channel != 0 {
				ch = cfg.Channel
			}
			if cfg.Geo.Strips > 0 {
				eStrips = cfg.Geo.Strips
			}
			if cfg.Geo.LedsPerStrip > 0 {
				eLeds = cfg.Geo.LedsPerStrip
			}
			if cfg.FPS > 0 {
				eFPS = cfg.FPS
			}
			eBestEffort = eBestEffort || cfg.Server.BestEffort
			dialTimeout = time.Duration(cfg.Server.DialTimeoutMs) * time.Millisecond
			writeTimeout = time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond
		}
	}

	opts := []glimmer.Option{
		glimmer.WithDialTimeout(dialTimeout),
		glimmer.WithWriteTimeout(writeTimeout),
	}
	if eBestEffort {
		opts = append(opts, glimmer.WithBestEffort())
	}

	c, err := glimmer.Dial(addr, opts...)
	if err != nil {
		log.Fatal().Err(err).Str("server", addr).Msg("connect failed")
	}
	defer c.Close()
	log.Info().Str("server", addr).Int("channel", ch).Int("pixels", eStrips*eLeds).Msg("connected")

	switch *patName {
	case "measuring-stick":
		sendStatic(c, ch, pattern.MeasuringStick(eStrips, eLeds))
	case "gradient":
		pixels, err := pattern.Gradient(eStrips*eLeds, *fromHex, *toHex)
		if err != nil {
			log.Fatal().Err(err).Msg("bad gradient")
		}
		sendStatic(c, ch, pixels)
	case "index_sweep", "rgb_channels":
		runSequence(c, ch, pattern.Kind(*patName), eStrips*eLeds, eFPS)
	default:
		log.Fatal().Str("pattern", *patName).Msg("unknown pattern")
	}

	if n := c.Dropped(); n > 0 {
		log.Warn().Uint64("dropped", n).AnErr("last", c.LastErr()).Msg("frames dropped")
	}
}

// sendStatic pushes the frame twice: a server that interpolates between
// frames displays the second copy immediately.
func sendStatic(c *glimmer.Client, channel int, pixels []glimmer.Pixel) {
	for i := 0; i < 2; i++ {
		if err := c.SendFrame(channel, pixels); err != nil {
			log.Fatal().Err(err).Msg("send failed")
		}
	}
	log.Info().Int("pixels", len(pixels)).Msg("frame sent")
}

func runSequence(c *glimmer.Client, channel int, kind pattern.Kind, n, fps int) {
	if fps <= 0 {
		fps = 10
	}
	runner := pattern.NewRunner(kind, n)
	pixels := make([]glimmer.Pixel, n)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	frames := 0
	for range ticker.C {
		if !runner.Step(pixels) {
			break
		}
		if err := c.SendFrame(channel, pixels); err != nil {
			log.Fatal().Err(err).Msg("send failed")
		}
		frames++
	}
	log.Info().Int("frames", frames).Str("sequence", string(kind)).Msg("sequence complete")
}
