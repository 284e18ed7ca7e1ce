package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/audio/portaudio"
	"github.com/haivivi/echomemo/pkg/echomemo"
	"github.com/haivivi/echomemo/pkg/gpio"
	"github.com/haivivi/echomemo/pkg/hwevent"
	"github.com/haivivi/echomemo/pkg/metrics"
	"github.com/haivivi/echomemo/pkg/panel"
	"github.com/haivivi/echomemo/pkg/recorder"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the appliance",
	Long: `Run the appliance until interrupted.

The knob selects a mode (Daily, Chat, Diary, Reminder) and its button
confirms it. Hold the record button to talk. With hardware.enabled off, the
websocket panel (panel.listen) is the only input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if missing := cfg.Missing(); len(missing) > 0 {
			for _, m := range missing {
				fmt.Fprintf(cmd.ErrOrStderr(), "  missing: %s\n", m)
			}
			return fmt.Errorf("configuration incomplete: %d required setting(s) missing", len(missing))
		}
		if problems := cfg.Validate(); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  invalid: %s\n", p)
			}
			return fmt.Errorf("configuration invalid")
		}

		logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dir, err := artifact.NewDir(cfg.Audio.ArtifactDir)
		if err != nil {
			return err
		}
		if n, err := dir.Sweep(); err != nil {
			logger.Warn("sweep artifacts", "error", err)
		} else if n > 0 {
			logger.Info("removed stale artifacts", "count", n)
		}

		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := portaudio.Initialize(); err != nil {
			return err
		}
		defer portaudio.Terminate()

		screen, err := openDisplay(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer screen.Close()

		ai, err := newAssistant(ctx, cfg)
		if err != nil {
			return err
		}

		stats := metrics.New()
		rec := recorder.New(newMic(cfg, dir, logger),
			recorder.WithFinalizeTimeout(cfg.Audio.FinalizeTimeout.D()),
			recorder.WithLogger(logger),
			recorder.WithFinishHook(stats.RecordingFinished),
		)

		opts := []echomemo.Option{
			echomemo.WithLogger(logger),
			echomemo.WithPauses(cfg.Scheduler.SplashPause.D(), cfg.Scheduler.StatusPause.D()),
			echomemo.WithTimeout(cfg.AI.Timeout.D()),
			echomemo.WithFailureHook(stats.CollaboratorFailed),
		}
		archiver, err := openArchiver(cfg)
		if err != nil {
			return err
		}
		if archiver != nil {
			opts = append(opts, echomemo.WithArchiver(archiver))
		}
		machine := echomemo.New(screen, newSpeaker(cfg, dir, logger), ai, store, rec, opts...)

		ch := hwevent.NewChannel(cfg.Scheduler.Capacity)
		defer ch.Close()
		stats.WatchDropped(ch.Dropped)
		dispatcher := hwevent.NewDispatcher(ch, machine,
			hwevent.WithObserver(stats),
			hwevent.WithLogger(logger),
		)

		g, gctx := errgroup.WithContext(ctx)

		var inputs int
		if cfg.Hardware.Enabled {
			lines, err := gpio.Open(gpio.Pins(cfg.Hardware.Pins))
			if err != nil {
				return err
			}
			adapter := gpio.NewAdapter(*lines, ch, gpio.Config{
				Debounce:        cfg.Hardware.Debounce.D(),
				EncoderDebounce: cfg.Hardware.EncoderDebounce.D(),
				Logger:          logger,
			})
			g.Go(func() error { return adapter.Run(gctx) })
			inputs++
		}
		if cfg.Panel.Listen != "" {
			srv := panel.NewServer(ch, logger)
			g.Go(func() error { return srv.Serve(gctx, cfg.Panel.Listen) })
			inputs++
		}
		if inputs == 0 {
			logger.Warn("no input source: enable hardware or set panel.listen")
		}
		if cfg.Metrics.Listen != "" {
			g.Go(func() error { return stats.Serve(gctx, cfg.Metrics.Listen, logger) })
		}

		g.Go(func() error {
			machine.Boot(gctx)
			err := dispatcher.Run(gctx, cfg.Scheduler.Tick.D())
			machine.Shutdown(context.Background())
			return err
		})

		logger.Info("echomemo running", "config", cfg.Path(), "hardware", cfg.Hardware.Enabled, "panel", cfg.Panel.Listen)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("echomemo stopped", "dropped_events", ch.Dropped())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
