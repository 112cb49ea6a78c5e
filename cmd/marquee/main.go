package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	cli "github.com/urfave/cli/v2"

	"github.com/coreman2200/marquee/internal/app"
	"github.com/coreman2200/marquee/internal/config"
	"github.com/coreman2200/marquee/internal/render"
)

const (
	configFlagName   = "config"
	logLevelFlagName = "log-level"
	driverFlagName   = "driver"
	stateFlagName    = "state-dir"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	a := &cli.App{
		Name:  "marquee",
		Usage: "edit, preview and upload messages for 44x11 LED name badges",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: configFlagName, Aliases: []string{"c"}, Value: "config.yaml", Usage: "path to config.yaml"},
			&cli.StringFlag{Name: logLevelFlagName, Value: "info", Usage: "debug | info | warn | error"},
			&cli.StringFlag{Name: driverFlagName, Usage: "transport override: hid | sim"},
			&cli.StringFlag{Name: stateFlagName, Usage: "directory holding the saved banks"},
		},
		Before: func(c *cli.Context) error {
			lvl, err := zerolog.ParseLevel(c.String(logLevelFlagName))
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
		Commands: []*cli.Command{
			uploadCommand,
			execCommand,
			devicesCommand,
			encodeCommand,
			previewCommand,
			serveCommand,
			gifCommand,
			shareCommand,
		},
	}
	if err := a.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("marquee")
	}
}

// loadConfig reads the config file; a missing file yields the defaults.
// Global flags override the file.
func loadConfig(c *cli.Context) *config.Config {
	path := c.String(configFlagName)
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", path).Msg("no config file; using defaults")
		cfg = config.Default()
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	if d := c.String(driverFlagName); d != "" {
		cfg.Driver = d
	}
	if d := c.String(stateFlagName); d != "" {
		cfg.StateDir = d
	}
	return cfg
}

func loadCore(c *cli.Context, drv render.Driver) (*config.Config, *app.Core, error) {
	cfg := loadConfig(c)
	core, err := app.InitCore(cfg, drv)
	if err != nil {
		return nil, nil, err
	}
	return cfg, core, nil
}

// logToFile moves logging off the terminal while a full-screen UI runs.
func logToFile(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true})
	return f, nil
}
