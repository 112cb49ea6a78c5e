package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	cli "github.com/urfave/cli/v2"

	"github.com/coreman2200/marquee/internal/app"
	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/bitmap"
	"github.com/coreman2200/marquee/internal/command"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/driver/fake"
	"github.com/coreman2200/marquee/internal/driver/preview"
	"github.com/coreman2200/marquee/internal/led"
	"github.com/coreman2200/marquee/internal/mirror"
	"github.com/coreman2200/marquee/internal/pattern"
	"github.com/coreman2200/marquee/internal/render"
	"github.com/coreman2200/marquee/internal/share"
	"github.com/coreman2200/marquee/internal/tui"
	"github.com/coreman2200/marquee/internal/ws"
)

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// logDiagnostics prints hub diagnostics for the non-interactive commands.
func logDiagnostics(hub *diag.Hub) func() {
	return hub.Subscribe(func(d diag.Diagnostic) {
		ev := log.Info()
		switch d.Severity {
		case diag.Warn:
			ev = log.Warn()
		case diag.Err:
			ev = log.Error()
		}
		ev.Str("code", d.Code).Str("detail", d.Detail).Strs("fixes", d.SuggestedFixes).Msg(d.Summary)
	})
}

var uploadCommand = &cli.Command{
	Name:  "upload",
	Usage: "apply optional edits to a bank and send all banks to the badge",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "bank", Aliases: []string{"b"}, Usage: "bank to edit, 1-8"},
		&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "message text"},
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "display mode name or number"},
		&cli.IntFlag{Name: "speed", Aliases: []string{"s"}, Usage: "speed 1-8"},
		&cli.StringFlag{Name: "image", Usage: "png, gif or jpeg to import"},
		&cli.BoolFlag{Name: "invert", Usage: "light the dark pixels of --image"},
		&cli.StringFlag{Name: "pattern", Usage: "calibration pattern"},
		&cli.IntFlag{Name: "brightness", Usage: "brightness percent"},
	},
	Action: func(c *cli.Context) error {
		_, core, err := loadCore(c, nil)
		if err != nil {
			return err
		}
		defer core.Close()
		defer logDiagnostics(core.Hub)()
		s := core.Session

		if err := applyEdits(c, s); err != nil {
			return err
		}
		ctx, stop := signalContext(c)
		defer stop()
		return s.Upload(ctx)
	},
}

func applyEdits(c *cli.Context, s *app.Session) error {
	if c.IsSet("bank") {
		if err := s.SelectBank(c.Int("bank") - 1); err != nil {
			return err
		}
	}
	if c.IsSet("mode") {
		m, err := bank.ParseMode(c.String("mode"))
		if err != nil {
			return err
		}
		if err := s.SetMode(m); err != nil {
			return err
		}
	}
	if c.IsSet("text") {
		if err := s.SetText(c.String("text")); err != nil {
			return err
		}
	}
	if path := c.String("image"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		m, err := bitmap.Decode(f, bitmap.ImportOptions{Invert: c.Bool("invert")})
		if err != nil {
			return err
		}
		if err := s.ImportImage(m); err != nil {
			return err
		}
	}
	if k := c.String("pattern"); k != "" {
		if err := s.LoadPattern(pattern.Kind(k)); err != nil {
			return fmt.Errorf("%w (have %v)", err, pattern.Kinds())
		}
	}
	if c.IsSet("speed") {
		if err := s.SetSpeed(c.Int("speed")); err != nil {
			return err
		}
	}
	if c.IsSet("brightness") {
		s.SetBrightness(c.Int("brightness"))
	}
	return nil
}

var execCommand = &cli.Command{
	Name:      "exec",
	Usage:     "run editor commands, from arguments or a script file (- for stdin)",
	ArgsUsage: "[command ...]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "script with one command per line"},
		&cli.BoolFlag{Name: "show", Usage: "print the active bank afterwards"},
	},
	Action: func(c *cli.Context) error {
		var drv render.Driver
		if c.Bool("show") {
			drv = &fake.Driver{Full: true}
		}
		_, core, err := loadCore(c, drv)
		if err != nil {
			return err
		}
		defer core.Close()
		defer logDiagnostics(core.Hub)()

		lines := c.Args().Slice()
		if path := c.String("file"); path != "" {
			var r io.Reader = os.Stdin
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			sc := bufio.NewScanner(r)
			for sc.Scan() {
				lines = append(lines, sc.Text())
			}
			if err := sc.Err(); err != nil {
				return err
			}
		}
		if len(lines) == 0 {
			fmt.Println(strings.Join(command.Usage(), "\n"))
			return nil
		}
		ctx, stop := signalContext(c)
		defer stop()
		for i, line := range lines {
			if err := command.Run(ctx, core.Session, line); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if drv != nil {
			_, err = core.Session.Tick()
		}
		return err
	},
}

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "list connected badges",
	Action: func(c *cli.Context) error {
		cfg := loadConfig(c)
		devs := led.Devices(cfg.Device.VendorID, cfg.Device.ProductID)
		if len(devs) == 0 {
			return led.ErrDeviceNotFound
		}
		for _, d := range devs {
			fmt.Printf("%s\t%04x:%04x\t%s\t%s\n", d.Path, d.VendorID, d.ProductID, d.Product, d.Serial)
		}
		return nil
	},
}

var encodeCommand = &cli.Command{
	Name:  "encode",
	Usage: "print the upload packets as a hex dump",
	Action: func(c *cli.Context) error {
		cfg, core, err := loadCore(c, nil)
		if err != nil {
			return err
		}
		defer core.Close()
		pkts, err := core.Session.Packets(cfg.Device.PacketSize)
		if err != nil {
			return err
		}
		st := core.Session.Status()
		fmt.Printf("# %d packets, memory %d/%d bytes (%.1f%%)\n", len(pkts), st.Memory.Used, st.Memory.Capacity, st.Memory.Percent)
		for i, p := range pkts {
			fmt.Printf("# packet %d\n%s", i, hex.Dump(p))
		}
		return nil
	},
}

var previewCommand = &cli.Command{
	Name:  "preview",
	Usage: "terminal editor with a live badge preview",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "log", Value: "marquee.log", Usage: "log file, relative to the state dir"},
	},
	Action: func(c *cli.Context) error {
		cfg := loadConfig(c)
		path := c.String("log")
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.StateDir, path)
		}
		f, err := logToFile(path)
		if err != nil {
			return err
		}
		defer f.Close()

		core, err := app.InitCore(cfg, nil)
		if err != nil {
			return err
		}
		defer core.Close()
		return tui.Run(core.Session, cfg.FPS, cfg.Preview.LEDColor)
	},
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the live preview, control and share endpoints over HTTP",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address (default from config)"},
		&cli.BoolFlag{Name: "share", Value: true, Usage: "host the share endpoint"},
		&cli.BoolFlag{Name: "mirror", Usage: "mirror frames on an I2C OLED"},
	},
	Action: func(c *cli.Context) error {
		cfg := loadConfig(c)
		addr := cfg.Preview.Addr
		if c.IsSet("addr") {
			addr = c.String("addr")
		}

		pv := preview.New(preview.DefaultThrottle)
		drivers := render.Drivers{pv}
		if cfg.Mirror.Enabled || c.Bool("mirror") {
			m, err := mirror.Open(cfg.Mirror.I2CBus)
			if err != nil {
				log.Warn().Err(err).Msg("oled mirror unavailable")
			} else {
				defer m.Close()
				drivers = append(drivers, m)
			}
		}

		core, err := app.InitCore(cfg, drivers)
		if err != nil {
			return err
		}
		defer core.Close()

		srv := ws.NewServer(core.Session, cfg.FPS)
		defer srv.Close()
		pv.SetSink(srv.BroadcastFrame)
		if c.Bool("share") {
			srv.Share = share.NewHandler(share.NewMemStore(share.TTL))
		}

		httpSrv := &http.Server{
			Addr:         addr,
			Handler:      withCORS(srv.Routes()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		ctx, stop := signalContext(c)
		defer stop()
		go app.NewConductor(core.Session).Run(ctx, cfg.FPS)

		errc := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Str("driver", cfg.Driver).Bool("read_only", core.ReadOnly).Msg("HTTP server starting")
			errc <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			log.Info().Msg("shutting down")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

var gifCommand = &cli.Command{
	Name:  "gif",
	Usage: "record the active bank's playback as an animated GIF",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output file"},
		&cli.DurationFlag{Name: "length", Value: 10 * time.Second, Usage: "recording length"},
		&cli.IntFlag{Name: "scale", Value: 6, Usage: "output pixels per LED"},
	},
	Action: func(c *cli.Context) error {
		cfg, core, err := loadCore(c, nil)
		if err != nil {
			return err
		}
		defer core.Close()

		ledColor, err := bitmap.ParseLEDColor(cfg.Preview.LEDColor)
		if err != nil {
			log.Warn().Err(err).Str("color", cfg.Preview.LEDColor).Msg("led colour; using default")
		}
		rec := core.Session.Record(c.Duration("length"), 20*time.Millisecond)

		f, err := os.Create(c.String("out"))
		if err != nil {
			return err
		}
		if err := bitmap.EncodeGIF(f, rec, bitmap.GIFOptions{Scale: c.Int("scale"), LED: ledColor}); err != nil {
			f.Close()
			return err
		}
		log.Info().Int("frames", len(rec.Frames)).Str("out", c.String("out")).Msg("gif written")
		return f.Close()
	},
}

var shareCommand = &cli.Command{
	Name:  "share",
	Usage: "publish or fetch bank sets on a share server",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "share server base URL (default from config)"},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "push",
			Usage: "upload the current banks and print the share id",
			Action: func(c *cli.Context) error {
				cfg, core, err := loadCore(c, nil)
				if err != nil {
					return err
				}
				defer core.Close()
				id, err := shareClient(c, cfg.Share.URL).Store(c.Context, core.Store.Snapshot())
				if err != nil {
					return err
				}
				fmt.Println(id)
				return nil
			},
		},
		{
			Name:      "pull",
			Usage:     "replace the current banks with a shared set",
			ArgsUsage: "<id>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return errors.New("pull requires a share id, see help share pull")
				}
				cfg, core, err := loadCore(c, nil)
				if err != nil {
					return err
				}
				defer core.Close()
				if core.ReadOnly {
					log.Warn().Msg("state is in use by another process; pulled banks will not be saved")
				}
				snap, err := shareClient(c, cfg.Share.URL).Fetch(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				return core.Session.LoadState(snap)
			},
		},
	},
}

func shareClient(c *cli.Context, fallback string) *share.Client {
	url := fallback
	if u := c.String("url"); u != "" {
		url = u
	}
	return share.NewClient(url)
}
